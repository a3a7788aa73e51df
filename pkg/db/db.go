package db

import (
	"fmt"
	"os"

	"github.com/dvanosdol88/teller-codex10-9A/pkg/config"
)

// GetDBDSN builds the Postgres DSN. A platform-provided DATABASE_URL wins
// over the assembled config values so hosted deploys need no yaml edits.
func GetDBDSN(config *config.DatabaseConfig) string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		if sslmode := os.Getenv("DATABASE_SSLMODE"); sslmode != "" {
			sep := "?"
			for _, c := range url {
				if c == '?' {
					sep = "&"
					break
				}
			}
			url = url + sep + "sslmode=" + sslmode
		}
		return url
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		config.User,
		config.Password,
		config.Host,
		config.Port,
		config.DBName,
		config.SSLMode,
	)
}

// Configured reports whether any database settings are present at all.
// Without them the service falls back to the in-memory store.
func Configured(config *config.DatabaseConfig) bool {
	return os.Getenv("DATABASE_URL") != "" || config.Host != ""
}
