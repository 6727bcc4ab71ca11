package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
	"github.com/class-unity/classunity-api/pkg/config"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
	"github.com/class-unity/classunity-api/pkg/messaging"
)

type fakeChatClient struct {
	upserted []messaging.User
	batches  [][]messaging.User
	unread   int
}

func (f *fakeChatClient) CreateToken(userID string, _ time.Time) (string, error) {
	return "token-for-" + userID, nil
}

func (f *fakeChatClient) UpsertUser(_ context.Context, u messaging.User) error {
	f.upserted = append(f.upserted, u)
	return nil
}

func (f *fakeChatClient) UpsertUsers(_ context.Context, users []messaging.User) error {
	f.batches = append(f.batches, users)
	return nil
}

func (f *fakeChatClient) MemberChannels(context.Context, string) ([]messaging.Channel, error) {
	return []messaging.Channel{{ID: "general", Type: "team"}}, nil
}

func (f *fakeChatClient) UnreadCounts(context.Context, string) (int, []messaging.ChannelUnread, error) {
	return f.unread, []messaging.ChannelUnread{{ChannelID: "general", Count: f.unread}}, nil
}

type fakeTeacherFinder struct{ teacher *models.TeacherDetail }

func (f fakeTeacherFinder) FindByID(context.Context, string) (*models.TeacherDetail, error) {
	return f.teacher, nil
}

type fakeStudentFinder struct{ student *models.StudentDetail }

func (f fakeStudentFinder) FindByID(context.Context, string) (*models.StudentDetail, error) {
	return f.student, nil
}

func newChatService(chat messaging.Client, queue jobEnqueuer) *ChatService {
	teacher := &models.TeacherDetail{Teacher: models.Teacher{ID: "teacher-1", Name: "John", Surname: "Smith"}}
	student := &models.StudentDetail{Student: models.Student{ID: "stu-1", Name: "Jane", Surname: "Doe"}}
	cfg := config.ChatConfig{TokenExpiration: time.Hour, UnreadCountTTL: 30 * time.Second}
	return NewChatService(chat, fakeTeacherFinder{teacher}, fakeStudentFinder{student}, disabledCache(), queue, cfg, nil)
}

func TestChatTokenMirrorsTeacherIntoProvider(t *testing.T) {
	chat := &fakeChatClient{}
	svc := newChatService(chat, &fakeQueue{})

	token, err := svc.Token(context.Background(), authz.Principal{UserID: "teacher-1", Role: models.RoleTeacher})
	require.NoError(t, err)
	assert.Equal(t, "token-for-teacher-1", token.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, time.Minute)

	require.Len(t, chat.upserted, 1)
	assert.Equal(t, "John Smith", chat.upserted[0].Name)
	assert.Equal(t, string(models.RoleTeacher), chat.upserted[0].Role)
}

func TestChatTokenForAdminUsesAccountID(t *testing.T) {
	chat := &fakeChatClient{}
	svc := newChatService(chat, &fakeQueue{})

	_, err := svc.Token(context.Background(), admin())
	require.NoError(t, err)
	require.Len(t, chat.upserted, 1)
	assert.Equal(t, "admin-1", chat.upserted[0].ID)
	assert.Equal(t, "Administrator", chat.upserted[0].Name)
}

func TestChatUnreadSummarisesChannels(t *testing.T) {
	chat := &fakeChatClient{unread: 4}
	svc := newChatService(chat, &fakeQueue{})

	summary, err := svc.Unread(context.Background(), authz.Principal{UserID: "stu-1", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Total)
	require.Len(t, summary.Channels, 1)
	assert.Equal(t, "general", summary.Channels[0].ChannelID)
}

func TestChatSyncAdminOnly(t *testing.T) {
	queue := &fakeQueue{}
	svc := newChatService(&fakeChatClient{}, queue)

	err := svc.Sync(context.Background(), authz.Principal{UserID: "teacher-1", Role: models.RoleTeacher})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Empty(t, queue.jobs)

	err = svc.Sync(context.Background(), admin())
	require.NoError(t, err)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobChatSync, queue.jobs[0].Type)
}
