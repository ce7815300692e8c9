package repos

import (
	"database/sql"
	"strings"
)

// affected turns a zero-row UPDATE/DELETE into ErrNotFound.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// likePattern builds a case-insensitive substring pattern, escaping LIKE
// metacharacters with '\'.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
