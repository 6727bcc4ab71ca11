package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
	"github.com/class-unity/classunity-api/pkg/config"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
	"github.com/class-unity/classunity-api/pkg/identity"
	"github.com/class-unity/classunity-api/pkg/jobs"
)

type fakeIdentity struct {
	createID  string
	createErr error
	updateErr error
	deleteErr error

	created []identity.CreateUserParams
	updated []string
	deleted []string
}

func (f *fakeIdentity) CreateUser(_ context.Context, params identity.CreateUserParams) (string, error) {
	f.created = append(f.created, params)
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.createID, nil
}

func (f *fakeIdentity) UpdateUser(_ context.Context, id string, _ identity.UpdateUserParams) error {
	f.updated = append(f.updated, id)
	return f.updateErr
}

func (f *fakeIdentity) DeleteUser(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

type fakeTeacherRepo struct {
	createErr error
	updateErr error
	deleteErr error

	created []*models.Teacher
	deleted []string
}

func (f *fakeTeacherRepo) List(context.Context, authz.Filter, int, int) ([]models.TeacherDetail, int, error) {
	return nil, 0, nil
}

func (f *fakeTeacherRepo) FindByID(context.Context, string) (*models.TeacherDetail, error) {
	return &models.TeacherDetail{}, nil
}

func (f *fakeTeacherRepo) Create(_ context.Context, teacher *models.Teacher, _ []string) error {
	f.created = append(f.created, teacher)
	return f.createErr
}

func (f *fakeTeacherRepo) Update(context.Context, *models.Teacher, []string) error {
	return f.updateErr
}

func (f *fakeTeacherRepo) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

type fakeQueue struct {
	jobs []jobs.Job
	err  error
}

func (f *fakeQueue) Enqueue(job jobs.Job) error {
	f.jobs = append(f.jobs, job)
	return f.err
}

func (f *fakeQueue) jobsOfType(jobType string) []jobs.Job {
	var out []jobs.Job
	for _, job := range f.jobs {
		if job.Type == jobType {
			out = append(out, job)
		}
	}
	return out
}

// allowAllResolver lets the guard approve teacher mutations in tests where
// ownership is not the subject.
type allowAllResolver struct{ owner string }

func (r allowAllResolver) ChapterTeacher(context.Context, string) (string, error) {
	return r.owner, nil
}
func (r allowAllResolver) ExamTeacher(context.Context, string) (string, error) {
	return r.owner, nil
}
func (r allowAllResolver) AssignmentTeacher(context.Context, string) (string, error) {
	return r.owner, nil
}
func (r allowAllResolver) ResultTeacher(context.Context, string) (string, error) {
	return r.owner, nil
}

func disabledCache() *CacheService {
	return NewCacheService(nil, nil, config.CacheConfig{}, nil)
}

func admin() authz.Principal {
	return authz.Principal{UserID: "admin-1", Role: models.RoleAdmin}
}

func validTeacherCreate() TeacherCreateRequest {
	return TeacherCreateRequest{
		Username: "jsmith",
		Password: "supersecret",
		Name:     "John",
		Surname:  "Smith",
		Sex:      "MALE",
		Birthday: time.Date(1985, 7, 14, 0, 0, 0, 0, time.UTC),
	}
}

func TestTeacherCreateProvisionsAccountFirst(t *testing.T) {
	provider := &fakeIdentity{createID: "acct-1"}
	repo := &fakeTeacherRepo{}
	queue := &fakeQueue{}
	svc := NewTeacherService(repo, provider, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), queue, nil, nil)

	teacher, err := svc.Create(context.Background(), admin(), validTeacherCreate())
	require.NoError(t, err)
	assert.Equal(t, "acct-1", teacher.ID)
	require.Len(t, provider.created, 1)
	assert.Equal(t, string(models.RoleTeacher), provider.created[0].Role)
	require.Len(t, repo.created, 1)
	assert.Len(t, queue.jobsOfType(JobChatUpsert), 1)
}

func TestTeacherCreateCompensatesOnLocalFailure(t *testing.T) {
	provider := &fakeIdentity{createID: "acct-1"}
	repo := &fakeTeacherRepo{createErr: errors.New("insert failed")}
	queue := &fakeQueue{}
	svc := NewTeacherService(repo, provider, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), queue, nil, nil)

	_, err := svc.Create(context.Background(), admin(), validTeacherCreate())
	require.Error(t, err)
	assert.Equal(t, []string{"acct-1"}, provider.deleted)
	assert.Empty(t, queue.jobsOfType(JobIdentityDelete))
}

func TestTeacherCreateQueuesCleanupWhenCompensationFails(t *testing.T) {
	provider := &fakeIdentity{createID: "acct-1", deleteErr: errors.New("provider down")}
	repo := &fakeTeacherRepo{createErr: errors.New("insert failed")}
	queue := &fakeQueue{}
	svc := NewTeacherService(repo, provider, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), queue, nil, nil)

	_, err := svc.Create(context.Background(), admin(), validTeacherCreate())
	require.Error(t, err)

	cleanup := queue.jobsOfType(JobIdentityDelete)
	require.Len(t, cleanup, 1)
	payload, ok := cleanup[0].Payload.(IdentityDeletePayload)
	require.True(t, ok)
	assert.Equal(t, "acct-1", payload.UserID)
}

func TestTeacherCreateAbortsWhenProvisioningFails(t *testing.T) {
	provider := &fakeIdentity{createErr: errors.New("provider down")}
	repo := &fakeTeacherRepo{}
	svc := NewTeacherService(repo, provider, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), &fakeQueue{}, nil, nil)

	_, err := svc.Create(context.Background(), admin(), validTeacherCreate())
	require.Error(t, err)
	assert.Empty(t, repo.created)
}

func TestTeacherUpdateQueuesRetryOnRemoteFailure(t *testing.T) {
	provider := &fakeIdentity{updateErr: errors.New("provider down")}
	repo := &fakeTeacherRepo{}
	queue := &fakeQueue{}
	svc := NewTeacherService(repo, provider, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), queue, nil, nil)

	req := TeacherUpdateRequest{
		Username: "jsmith",
		Name:     "John",
		Surname:  "Smith",
		Sex:      "MALE",
		Birthday: time.Date(1985, 7, 14, 0, 0, 0, 0, time.UTC),
	}
	_, err := svc.Update(context.Background(), admin(), "teacher-1", req)
	require.NoError(t, err)

	retries := queue.jobsOfType(JobIdentityUpdate)
	require.Len(t, retries, 1)
	payload, ok := retries[0].Payload.(IdentityUpdatePayload)
	require.True(t, ok)
	assert.Equal(t, "teacher-1", payload.UserID)
	assert.Equal(t, "jsmith", payload.Params.Username)
}

func TestTeacherDeleteAbortsWhenRemoteDeleteFails(t *testing.T) {
	provider := &fakeIdentity{deleteErr: errors.New("provider down")}
	repo := &fakeTeacherRepo{}
	svc := NewTeacherService(repo, provider, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), &fakeQueue{}, nil, nil)

	err := svc.Delete(context.Background(), admin(), "teacher-1")
	require.Error(t, err)
	assert.Empty(t, repo.deleted)
}

func TestTeacherMutationsDeniedForTeachers(t *testing.T) {
	svc := NewTeacherService(&fakeTeacherRepo{}, &fakeIdentity{}, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), &fakeQueue{}, nil, nil)

	p := authz.Principal{UserID: "teacher-1", Role: models.RoleTeacher}
	_, err := svc.Create(context.Background(), p, validTeacherCreate())
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	err = svc.Delete(context.Background(), p, "teacher-2")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestTeacherGetDeniedForStudents(t *testing.T) {
	svc := NewTeacherService(&fakeTeacherRepo{}, &fakeIdentity{}, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), &fakeQueue{}, nil, nil)

	_, err := svc.Get(context.Background(), authz.Principal{UserID: "stu-1", Role: models.RoleStudent}, "teacher-1")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
