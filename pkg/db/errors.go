package db

import "strings"

// IsUniqueViolation reports whether the provided error is a unique constraint
// violation. A named constraint matches directly when the driver includes it;
// otherwise the generic duplicate-key markers decide, because SQLite reports
// the column list rather than the index name.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" && strings.Contains(msg, constraintName) {
		return true
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
