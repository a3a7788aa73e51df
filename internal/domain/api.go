package domain

import (
	"encoding/json"
	"fmt"
)

// APIError is a non-2xx answer from the Teller API. Payload carries the
// response body verbatim so callers can log or forward it.
type APIError struct {
	StatusCode int
	Payload    json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("teller api error (%d): %s", e.StatusCode, string(e.Payload))
}
