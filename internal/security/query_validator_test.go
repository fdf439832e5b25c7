package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		err   error
	}{
		{"simple select", "SELECT id, name FROM users", nil},
		{"lower case", "  select * from orders where status = 'paid'", nil},
		{"cte", "WITH t AS (SELECT 1 AS x) SELECT x FROM t", nil},
		{"trailing semicolon", "SELECT 1;", nil},
		{"column containing keyword", "SELECT is_deleted, updated_at FROM users", nil},
		{"empty", "   ", ErrEmptyQuery},
		{"not select", "DELETE FROM users", ErrNotSelect},
		{"stacked", "SELECT 1; DROP TABLE users", ErrMultipleQueries},
		{"union", "SELECT a FROM t UNION SELECT b FROM u", ErrForbiddenWord},
		{"function call", "SELECT VERSION()", ErrForbiddenWord},
		{"mysql catalog", "SELECT * FROM information_schema.tables", ErrSystemTable},
		{"postgres catalog", "SELECT * FROM pg_catalog.pg_tables", ErrSystemTable},
		{"sqlite catalog", "SELECT name FROM sqlite_master", ErrSystemTable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.query)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestContainsWord(t *testing.T) {
	assert.True(t, containsWord("SELECT * FROM T WHERE X=DELETE", "DELETE"))
	assert.False(t, containsWord("SELECT DELETED_AT FROM T", "DELETE"))
	assert.False(t, containsWord("SELECT ANDROID FROM T", "DROP"))
	assert.True(t, containsWord("SELECT USER() FROM T", "USER("))
}
