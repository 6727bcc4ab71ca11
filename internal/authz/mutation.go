package authz

import (
	"context"
	"database/sql"
	"errors"

	"github.com/class-unity/classunity-api/internal/models"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
)

// MutationRef carries the identifiers the guard needs to walk the ownership
// chain of the mutation target. Only the fields relevant to the table and
// action need to be set.
type MutationRef struct {
	// RowID is the target row for updates and deletes.
	RowID string
	// ChapterID links a new exam/assignment, or re-links one on update.
	ChapterID string
	// ExamID / AssignmentID link a new result (exactly one is set).
	ExamID       string
	AssignmentID string
	// OwnerTeacherID is the declared owner when creating or re-assigning a
	// chapter.
	OwnerTeacherID string
}

// OwnershipResolver walks ownership chains in storage. Each method returns
// the owning teacher's ID, or sql.ErrNoRows when the row does not exist.
type OwnershipResolver interface {
	ChapterTeacher(ctx context.Context, chapterID string) (string, error)
	ExamTeacher(ctx context.Context, examID string) (string, error)
	AssignmentTeacher(ctx context.Context, assignmentID string) (string, error)
	ResultTeacher(ctx context.Context, resultID string) (string, error)
}

// MutationGuard authorizes create/update/delete operations before any write
// happens. Admins may mutate everything; teachers may mutate chapters they
// own and rows descending from them; students mutate nothing. Unknown
// tables and roles fail closed.
type MutationGuard struct {
	resolver OwnershipResolver
}

// NewMutationGuard constructs a MutationGuard.
func NewMutationGuard(resolver OwnershipResolver) *MutationGuard {
	return &MutationGuard{resolver: resolver}
}

// Authorize returns nil when the principal may perform the action, and
// ErrForbidden (or ErrNotFound for missing targets) otherwise.
func (g *MutationGuard) Authorize(ctx context.Context, p Principal, table Table, action Action, ref MutationRef) error {
	switch p.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleTeacher:
		return g.authorizeTeacher(ctx, p.UserID, table, action, ref)
	default:
		return appErrors.ErrForbidden
	}
}

func (g *MutationGuard) authorizeTeacher(ctx context.Context, userID string, table Table, action Action, ref MutationRef) error {
	switch table {
	case TableChapter:
		return g.authorizeChapter(ctx, userID, action, ref)
	case TableExam:
		return g.authorizeChapterChild(ctx, userID, action, ref, g.resolver.ExamTeacher)
	case TableAssignment:
		return g.authorizeChapterChild(ctx, userID, action, ref, g.resolver.AssignmentTeacher)
	case TableResult:
		return g.authorizeResult(ctx, userID, action, ref)
	default:
		return appErrors.ErrForbidden
	}
}

func (g *MutationGuard) authorizeChapter(ctx context.Context, userID string, action Action, ref MutationRef) error {
	if action == ActionUpdate || action == ActionDelete {
		if err := g.requireOwner(ctx, userID, ref.RowID, g.resolver.ChapterTeacher); err != nil {
			return err
		}
	}
	// a teacher cannot create a chapter for, or hand one to, someone else
	if action != ActionDelete && ref.OwnerTeacherID != userID {
		return appErrors.Clone(appErrors.ErrForbidden, "chapter must belong to the acting teacher")
	}
	return nil
}

func (g *MutationGuard) authorizeChapterChild(ctx context.Context, userID string, action Action, ref MutationRef, rowOwner func(context.Context, string) (string, error)) error {
	if action == ActionUpdate || action == ActionDelete {
		if err := g.requireOwner(ctx, userID, ref.RowID, rowOwner); err != nil {
			return err
		}
	}
	// creates and chapter re-links must target a chapter the teacher owns
	if action != ActionDelete {
		return g.requireOwner(ctx, userID, ref.ChapterID, g.resolver.ChapterTeacher)
	}
	return nil
}

func (g *MutationGuard) authorizeResult(ctx context.Context, userID string, action Action, ref MutationRef) error {
	if action == ActionUpdate || action == ActionDelete {
		if err := g.requireOwner(ctx, userID, ref.RowID, g.resolver.ResultTeacher); err != nil {
			return err
		}
	}
	if action == ActionDelete {
		return nil
	}
	switch {
	case ref.ExamID != "" && ref.AssignmentID == "":
		return g.requireOwner(ctx, userID, ref.ExamID, g.resolver.ExamTeacher)
	case ref.AssignmentID != "" && ref.ExamID == "":
		return g.requireOwner(ctx, userID, ref.AssignmentID, g.resolver.AssignmentTeacher)
	default:
		return appErrors.Clone(appErrors.ErrValidation, "result must reference exactly one exam or assignment")
	}
}

func (g *MutationGuard) requireOwner(ctx context.Context, userID, rowID string, owner func(context.Context, string) (string, error)) error {
	if rowID == "" {
		return appErrors.ErrForbidden
	}
	ownerID, err := owner(ctx, rowID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve ownership")
	}
	if ownerID != userID {
		return appErrors.ErrForbidden
	}
	return nil
}
