// Package authz implements the role-based access-control contract: the
// route-access table, the query scoper and the mutation guard. It is pure
// policy; it performs no I/O of its own beyond the ownership lookups the
// mutation guard delegates to its resolver.
package authz

import (
	"strings"

	"github.com/class-unity/classunity-api/internal/models"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
)

// Table identifies a scoped entity table.
type Table string

const (
	TableTeacher      Table = "teacher"
	TableStudent      Table = "student"
	TableCourse       Table = "course"
	TableClass        Table = "class"
	TableChapter      Table = "chapter"
	TableExam         Table = "exam"
	TableAssignment   Table = "assignment"
	TableResult       Table = "result"
	TableEvent        Table = "event"
	TableAnnouncement Table = "announcement"
	TableDepartment   Table = "department"
)

// Action identifies a mutating operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Principal is the authenticated caller for the current request. It is
// derived once from the session claims and never persisted.
type Principal struct {
	UserID string
	Role   models.Role
}

// PrincipalFromClaims validates the session claims into a Principal.
// A missing user ID or unknown role yields ErrUnauthorized; there is no
// default role.
func PrincipalFromClaims(claims *models.SessionClaims) (Principal, error) {
	if claims == nil || claims.UserID == "" {
		return Principal{}, appErrors.ErrUnauthorized
	}
	if !claims.Role.Known() {
		return Principal{}, appErrors.Clone(appErrors.ErrUnauthorized, "session carries no usable role")
	}
	return Principal{UserID: claims.UserID, Role: claims.Role}, nil
}

// Filter is a conjunction of SQL conditions with positional arguments,
// numbered from $1. Repositories append their own conditions using
// len(Args)+1 as the next placeholder index.
type Filter struct {
	Conds []string
	Args  []interface{}
}

// Where joins the conditions into a WHERE body.
func (f Filter) Where() string {
	if len(f.Conds) == 0 {
		return "1=1"
	}
	return strings.Join(f.Conds, " AND ")
}
