// Package signature verifies Teller webhook signatures.
//
// Teller signs each delivery with a header of the form
//
//	Teller-Signature: t=<unix ts>,v1=<hex hmac>[,v1=<hex hmac>...]
//
// where each v1 value is an HMAC-SHA256 of "<ts>.<raw body>" under one of
// the rotating shared secrets. A delivery is authentic when any listed
// signature matches any configured secret and the timestamp is fresh.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformedHeader = errors.New("malformed signature header")
	ErrStaleTimestamp  = errors.New("signature timestamp outside tolerance")
	ErrNoMatch         = errors.New("no signature matched a configured secret")
)

const DefaultTolerance = 180 * time.Second

type Verifier struct {
	secrets   [][]byte
	tolerance time.Duration
	now       func() time.Time
}

func NewVerifier(secrets []string, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	keys := make([][]byte, 0, len(secrets))
	for _, s := range secrets {
		if s != "" {
			keys = append(keys, []byte(s))
		}
	}
	return &Verifier{
		secrets:   keys,
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Verify checks header against the raw request body. It returns nil only
// for a fresh timestamp and at least one matching signature.
func (v *Verifier) Verify(header string, body []byte) error {
	if len(v.secrets) == 0 {
		return ErrNoMatch
	}

	ts, candidates, err := parseHeader(header)
	if err != nil {
		return err
	}

	age := v.now().Sub(time.Unix(ts, 0))
	if age < 0 {
		age = -age
	}
	if age > v.tolerance {
		return ErrStaleTimestamp
	}

	message := []byte(strconv.FormatInt(ts, 10) + "." + string(body))
	for _, secret := range v.secrets {
		mac := hmac.New(sha256.New, secret)
		mac.Write(message)
		expected := mac.Sum(nil)
		for _, candidate := range candidates {
			if hmac.Equal(candidate, expected) {
				return nil
			}
		}
	}

	return ErrNoMatch
}

func parseHeader(header string) (int64, [][]byte, error) {
	var ts int64
	var haveTS bool
	var candidates [][]byte

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return 0, nil, ErrMalformedHeader
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: bad timestamp", ErrMalformedHeader)
			}
			ts = parsed
			haveTS = true
		case "v1":
			sig, err := hex.DecodeString(value)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: bad hex signature", ErrMalformedHeader)
			}
			candidates = append(candidates, sig)
		default:
			// Ignore unknown schemes for forward compatibility.
		}
	}

	if !haveTS || len(candidates) == 0 {
		return 0, nil, ErrMalformedHeader
	}
	return ts, candidates, nil
}
