// Package repository contains the sqlx persistence layer. All read queries
// filter to active records unless the caller opts into inactive ones; soft
// deletes flip is_active instead of removing rows.
package repository

import (
	"database/sql"
	"fmt"
)

func clampPage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}

// requireRowAffected converts a zero-row mutation into sql.ErrNoRows so the
// service layer can surface a uniform not-found condition.
func requireRowAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
