// Package mirror keeps the session store and the bridge-chat store mirrored
// in both directions. Work flows through a durable job queue: collaborators
// enqueue a job right after writing a message to their own store, and a
// periodic drain pass claims each job atomically, materializes the missing
// half of the thread/session pairing if needed, and copies the message
// exactly once. A link row written in the same transaction as every copy is
// the idempotency ledger that makes retries safe.
package mirror

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// newID creates a unique record ID with a short type prefix, e.g. "bt-3fa9c21e04d7b85c".
func newID(prefix string) (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("mirror: generate ID: %w", err)
	}
	return prefix + "-" + hex.EncodeToString(b), nil
}

// isDuplicateKeyErr reports whether err is a unique-constraint violation.
// Covers GORM's translated error, the raw MySQL driver error (1062), and the
// sqlite error text seen under the test driver.
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
