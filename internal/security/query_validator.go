package security

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyQuery      = errors.New("query is empty")
	ErrMultipleQueries = errors.New("multi-statement queries are not allowed")
	ErrNotSelect       = errors.New("only SELECT queries are allowed")
	ErrForbiddenWord   = errors.New("forbidden keyword")
	ErrSystemTable     = errors.New("access to system table blocked")
)

// forbidden lists DML/DDL keywords and server introspection calls.
var forbidden = []string{
	"DELETE", "DROP", "INSERT", "UPDATE", "ALTER", "TRUNCATE", "GRANT", "REVOKE",
	"CREATE", "REPLACE", "CALL", "DO", "HANDLER", "LOAD", "UNION", "ATTACH", "PRAGMA",
	"USER(", "VERSION(", "DATABASE(", "LOAD_FILE(", "@@VERSION", "@@HOSTNAME",
}

// systemTables are catalog schemas of the supported SQL sources.
var systemTables = []string{
	"INFORMATION_SCHEMA", "MYSQL", "PERFORMANCE_SCHEMA", "SYS",
	"PG_CATALOG", "PG_SHADOW", "PG_AUTHID", "SQLITE_MASTER", "SQLITE_SCHEMA",
}

// ValidateQuery accepts a single read-only SELECT (or WITH ... SELECT) that
// stays out of system catalogs. It is a deny-list check meant for export
// definitions; sources should still be queried with a read-only account.
func ValidateQuery(query string) error {
	q := strings.TrimSpace(query)
	if q == "" {
		return ErrEmptyQuery
	}
	qUpper := strings.ToUpper(q)

	if !strings.HasPrefix(qUpper, "SELECT") && !strings.HasPrefix(qUpper, "WITH") {
		return ErrNotSelect
	}

	// A single trailing semicolon is tolerated.
	if strings.Contains(strings.TrimSuffix(q, ";"), ";") {
		return ErrMultipleQueries
	}

	for _, word := range forbidden {
		if containsWord(qUpper, word) {
			return fmt.Errorf("%w: %s", ErrForbiddenWord, word)
		}
	}
	for _, table := range systemTables {
		if containsWord(qUpper, table) {
			return fmt.Errorf("%w: %s", ErrSystemTable, table)
		}
	}
	return nil
}

// containsWord reports whether word occurs in s delimited by SQL boundaries,
// so "DELETE" matches but "IS_DELETED" does not. s must be upper case.
func containsWord(s, word string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], word)
		if i == -1 {
			return false
		}
		start := idx + i
		end := start + len(word)

		startOK := start == 0 || isBoundary(s[start-1])
		endOK := end == len(s) || isBoundary(s[end]) || strings.HasSuffix(word, "(")
		if startOK && endOK {
			return true
		}
		idx = start + 1
	}
}

func isBoundary(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '(', ')', ',', '=', '<', '>', '`', '.', '"', '[', ']', ';':
		return true
	}
	return false
}
