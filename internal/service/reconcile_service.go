package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/class-unity/classunity-api/internal/models"
	"github.com/class-unity/classunity-api/pkg/identity"
	"github.com/class-unity/classunity-api/pkg/jobs"
	"github.com/class-unity/classunity-api/pkg/messaging"
)

// Job types handled by the reconciliation queue.
const (
	JobIdentityDelete = "identity.delete"
	JobIdentityUpdate = "identity.update"
	JobChatUpsert     = "chat.upsert"
	JobChatSync       = "chat.sync"
)

// IdentityDeletePayload asks for a remote account removal to be retried.
type IdentityDeletePayload struct {
	UserID string
}

// IdentityUpdatePayload asks for a remote account update to be retried.
type IdentityUpdatePayload struct {
	UserID string
	Params identity.UpdateUserParams
}

// ChatUpsertPayload mirrors one principal into the chat provider.
type ChatUpsertPayload struct {
	ID    string
	Name  string
	Role  string
	Image string
}

type allTeachersLister interface {
	ListAll(ctx context.Context) ([]models.Teacher, error)
}

type allStudentsLister interface {
	ListAll(ctx context.Context) ([]models.Student, error)
}

// ReconcileService replays failed cross-system writes and mirrors the
// roster into the chat provider. It is the handler behind the background
// queue; the queue's retry policy deals with transient provider errors.
type ReconcileService struct {
	identity identity.Provider
	chat     messaging.Client
	teachers allTeachersLister
	students allStudentsLister
	logger   *zap.Logger
}

// NewReconcileService constructs the service.
func NewReconcileService(provider identity.Provider, chat messaging.Client, teachers allTeachersLister, students allStudentsLister, logger *zap.Logger) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileService{identity: provider, chat: chat, teachers: teachers, students: students, logger: logger}
}

// Handle dispatches one queued job.
func (s *ReconcileService) Handle(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case JobIdentityDelete:
		payload, ok := job.Payload.(IdentityDeletePayload)
		if !ok {
			return fmt.Errorf("job %s: unexpected payload %T", job.Type, job.Payload)
		}
		return s.identity.DeleteUser(ctx, payload.UserID)
	case JobIdentityUpdate:
		payload, ok := job.Payload.(IdentityUpdatePayload)
		if !ok {
			return fmt.Errorf("job %s: unexpected payload %T", job.Type, job.Payload)
		}
		return s.identity.UpdateUser(ctx, payload.UserID, payload.Params)
	case JobChatUpsert:
		payload, ok := job.Payload.(ChatUpsertPayload)
		if !ok {
			return fmt.Errorf("job %s: unexpected payload %T", job.Type, job.Payload)
		}
		return s.chat.UpsertUser(ctx, messaging.User{
			ID:    payload.ID,
			Name:  payload.Name,
			Role:  payload.Role,
			Image: payload.Image,
		})
	case JobChatSync:
		return s.syncRoster(ctx)
	default:
		s.logger.Warn("dropping job with unknown type", zap.String("type", job.Type))
		return nil
	}
}

// syncRoster pushes every teacher and student to the chat provider in one
// batch per cohort.
func (s *ReconcileService) syncRoster(ctx context.Context) error {
	teachers, err := s.teachers.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load teachers for sync: %w", err)
	}
	users := make([]messaging.User, 0, len(teachers))
	for _, t := range teachers {
		users = append(users, chatUser(t.ID, t.Name, t.Surname, t.Img, models.RoleTeacher))
	}
	if err := s.chat.UpsertUsers(ctx, users); err != nil {
		return fmt.Errorf("sync teachers: %w", err)
	}

	students, err := s.students.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load students for sync: %w", err)
	}
	cohort := make([]messaging.User, 0, len(students))
	for _, st := range students {
		cohort = append(cohort, chatUser(st.ID, st.Name, st.Surname, st.Img, models.RoleStudent))
	}
	if err := s.chat.UpsertUsers(ctx, cohort); err != nil {
		return fmt.Errorf("sync students: %w", err)
	}

	s.logger.Info("chat roster synchronised",
		zap.Int("teachers", len(teachers)),
		zap.Int("students", len(students)))
	return nil
}

func chatUser(id, name, surname string, img *string, role models.Role) messaging.User {
	user := messaging.User{ID: id, Name: name + " " + surname, Role: string(role)}
	if img != nil {
		user.Image = *img
	}
	return user
}
