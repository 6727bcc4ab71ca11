// Package repository contains the sqlx persistence layer. List queries take
// a pre-built scope filter whose conditions are numbered from $1; repository
// code appends its own placeholders from len(filter.Args)+1.
package repository

import (
	"database/sql"
	"fmt"
)

// errNoRows tags a missing row so callers can match sql.ErrNoRows.
func errNoRows(resource, id string) error {
	return fmt.Errorf("%s %s: %w", resource, id, sql.ErrNoRows)
}

// normalizePage clamps paging input to sane bounds.
func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
