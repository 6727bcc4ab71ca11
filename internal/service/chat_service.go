package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
	"github.com/class-unity/classunity-api/pkg/config"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
	"github.com/class-unity/classunity-api/pkg/jobs"
	"github.com/class-unity/classunity-api/pkg/messaging"
)

type teacherFinder interface {
	FindByID(ctx context.Context, id string) (*models.TeacherDetail, error)
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

// ChatService fronts the hosted chat provider: token issuance, channel
// listings and unread counts. Message delivery stays on the provider side.
type ChatService struct {
	chat     messaging.Client
	teachers teacherFinder
	students studentFinder
	cache    *CacheService
	queue    jobEnqueuer
	cfg      config.ChatConfig
	logger   *zap.Logger
}

// NewChatService constructs the service.
func NewChatService(chat messaging.Client, teachers teacherFinder, students studentFinder, cache *CacheService, queue jobEnqueuer, cfg config.ChatConfig, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{chat: chat, teachers: teachers, students: students, cache: cache, queue: queue, cfg: cfg, logger: logger}
}

// ChatToken is the credential a client uses to connect to the provider.
type ChatToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UnreadSummary reports unread messages across the user's channels.
type UnreadSummary struct {
	Total    int                       `json:"total"`
	Channels []messaging.ChannelUnread `json:"channels"`
}

// Token mirrors the principal into the chat provider and issues a
// connection token.
func (s *ChatService) Token(ctx context.Context, p authz.Principal) (*ChatToken, error) {
	user, err := s.chatUser(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.chat.UpsertUser(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register chat user")
	}

	expiresAt := time.Now().Add(s.cfg.TokenExpiration)
	token, err := s.chat.CreateToken(p.UserID, expiresAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue chat token")
	}
	return &ChatToken{Token: token, ExpiresAt: expiresAt}, nil
}

// Channels lists the conversations the principal belongs to.
func (s *ChatService) Channels(ctx context.Context, p authz.Principal) ([]messaging.Channel, error) {
	channels, err := s.chat.MemberChannels(ctx, p.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list channels")
	}
	return channels, nil
}

// Unread returns the principal's unread counts, cached briefly to keep
// badge polling off the provider.
func (s *ChatService) Unread(ctx context.Context, p authz.Principal) (*UnreadSummary, error) {
	key := fmt.Sprintf("chat:unread:%s", p.UserID)
	var cached UnreadSummary
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	total, channels, err := s.chat.UnreadCounts(ctx, p.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch unread counts")
	}

	summary := &UnreadSummary{Total: total, Channels: channels}
	s.cache.Set(ctx, key, summary, s.cfg.UnreadCountTTL)
	return summary, nil
}

// Sync queues a full roster push to the chat provider. Admin-only.
func (s *ChatService) Sync(_ context.Context, p authz.Principal) error {
	if p.Role != models.RoleAdmin {
		return appErrors.ErrForbidden
	}
	if s.queue == nil {
		return appErrors.Clone(appErrors.ErrInternal, "background queue unavailable")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: JobChatSync}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue roster sync")
	}
	return nil
}

func (s *ChatService) chatUser(ctx context.Context, p authz.Principal) (messaging.User, error) {
	switch p.Role {
	case models.RoleTeacher:
		teacher, err := s.teachers.FindByID(ctx, p.UserID)
		if err != nil {
			return messaging.User{}, storageError(err, "teacher")
		}
		return chatUser(teacher.ID, teacher.Name, teacher.Surname, teacher.Img, models.RoleTeacher), nil
	case models.RoleStudent:
		student, err := s.students.FindByID(ctx, p.UserID)
		if err != nil {
			return messaging.User{}, storageError(err, "student")
		}
		return chatUser(student.ID, student.Name, student.Surname, student.Img, models.RoleStudent), nil
	default:
		// admins have no roster row; identify them by account ID
		return messaging.User{ID: p.UserID, Name: "Administrator", Role: string(models.RoleAdmin)}, nil
	}
}
