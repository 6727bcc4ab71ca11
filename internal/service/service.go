// Package service implements the application workflows. Every operation
// takes the authenticated principal; listings go through the query scoper
// and mutations through the mutation guard before any write.
package service

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
)

// scopedID narrows a scope filter to a single row by primary key. Single
// reads share the same fail-closed scoping as listings.
func scopedID(f authz.Filter, column, id string) authz.Filter {
	f.Conds = append(f.Conds, fmt.Sprintf("%s = $%d", column, len(f.Args)+1))
	f.Args = append(f.Args, id)
	return f
}

// storageError maps persistence failures onto the API error contract.
func storageError(err error, resource string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, resource+" not found")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to access "+resource)
}

func pagination(q models.ListQuery, total int) *models.Pagination {
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
