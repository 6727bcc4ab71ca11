package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/class-unity/classunity-api/internal/models"
	"github.com/class-unity/classunity-api/pkg/identity"
	"github.com/class-unity/classunity-api/pkg/jobs"
)

type fakeRoster struct {
	teachers []models.Teacher
	students []models.Student
}

func (f fakeRoster) teacherLister() allTeachersLister { return teacherListerFunc(f.teachers) }
func (f fakeRoster) studentLister() allStudentsLister { return studentListerFunc(f.students) }

type teacherListerFunc []models.Teacher

func (l teacherListerFunc) ListAll(context.Context) ([]models.Teacher, error) { return l, nil }

type studentListerFunc []models.Student

func (l studentListerFunc) ListAll(context.Context) ([]models.Student, error) { return l, nil }

func TestReconcileReplaysIdentityJobs(t *testing.T) {
	provider := &fakeIdentity{}
	svc := NewReconcileService(provider, &fakeChatClient{}, teacherListerFunc(nil), studentListerFunc(nil), nil)

	err := svc.Handle(context.Background(), jobs.Job{
		Type:    JobIdentityDelete,
		Payload: IdentityDeletePayload{UserID: "acct-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"acct-1"}, provider.deleted)

	err = svc.Handle(context.Background(), jobs.Job{
		Type:    JobIdentityUpdate,
		Payload: IdentityUpdatePayload{UserID: "acct-2", Params: identity.UpdateUserParams{Username: "new"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"acct-2"}, provider.updated)
}

func TestReconcileRejectsMismatchedPayload(t *testing.T) {
	svc := NewReconcileService(&fakeIdentity{}, &fakeChatClient{}, teacherListerFunc(nil), studentListerFunc(nil), nil)

	err := svc.Handle(context.Background(), jobs.Job{Type: JobIdentityDelete, Payload: "not-a-payload"})
	require.Error(t, err)
}

func TestReconcileChatUpsert(t *testing.T) {
	chat := &fakeChatClient{}
	svc := NewReconcileService(&fakeIdentity{}, chat, teacherListerFunc(nil), studentListerFunc(nil), nil)

	err := svc.Handle(context.Background(), jobs.Job{
		Type:    JobChatUpsert,
		Payload: ChatUpsertPayload{ID: "stu-1", Name: "Jane Doe", Role: "student"},
	})
	require.NoError(t, err)
	require.Len(t, chat.upserted, 1)
	assert.Equal(t, "Jane Doe", chat.upserted[0].Name)
}

func TestReconcileSyncsRosterPerCohort(t *testing.T) {
	roster := fakeRoster{
		teachers: []models.Teacher{
			{ID: "teacher-1", Name: "John", Surname: "Smith"},
			{ID: "teacher-2", Name: "Mary", Surname: "Jones"},
		},
		students: []models.Student{
			{ID: "stu-1", Name: "Jane", Surname: "Doe"},
		},
	}
	chat := &fakeChatClient{}
	svc := NewReconcileService(&fakeIdentity{}, chat, roster.teacherLister(), roster.studentLister(), nil)

	err := svc.Handle(context.Background(), jobs.Job{Type: JobChatSync})
	require.NoError(t, err)

	require.Len(t, chat.batches, 2)
	assert.Len(t, chat.batches[0], 2)
	assert.Equal(t, "John Smith", chat.batches[0][0].Name)
	require.Len(t, chat.batches[1], 1)
	assert.Equal(t, string(models.RoleStudent), chat.batches[1][0].Role)
}

func TestReconcileDropsUnknownJobType(t *testing.T) {
	svc := NewReconcileService(&fakeIdentity{}, &fakeChatClient{}, teacherListerFunc(nil), studentListerFunc(nil), nil)

	err := svc.Handle(context.Background(), jobs.Job{Type: "bogus"})
	assert.NoError(t, err)
}
