// database/errors.go
package database

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gewnthar/rfiarchive/models"
	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrUniqueViolation is returned when an insert collides with an existing key.
var ErrUniqueViolation = errors.New("unique constraint violation")

// mysqlDupEntry is ER_DUP_ENTRY.
const mysqlDupEntry = 1062

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// isUniqueViolation recognizes duplicate-key errors of both supported drivers.
func isUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDupEntry
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT:
			return true
		}
		return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}

// wrapInsertErr maps duplicate-key errors onto ErrUniqueViolation.
func wrapInsertErr(table string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("insert into %s: %w: %v", table, ErrUniqueViolation, err)
	}
	return fmt.Errorf("failed to insert into %s: %w", table, err)
}

// quoteIdent validates a table or column name and backtick-quotes it. Both MySQL and
// SQLite accept backticks.
func quoteIdent(name string) (string, error) {
	if !identifierPattern.MatchString(name) {
		return "", fmt.Errorf("invalid identifier %q", name)
	}
	return "`" + name + "`", nil
}

// KeyTableName turns a receiver or project name into a table name. Key tables carry
// models.KeyTablePrefix so they never share a name with a configured archive table.
// '_' is doubled and any other byte outside [A-Za-z0-9] becomes '_' plus two hex
// digits, so distinct names never map to the same table.
func KeyTableName(name string) string {
	var b strings.Builder
	b.WriteString(models.KeyTablePrefix)
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == '_':
			b.WriteString("__")
		default:
			fmt.Fprintf(&b, "_%02x", c)
		}
	}
	return b.String()
}
