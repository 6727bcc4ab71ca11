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
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
)

type fakeStudentRepo struct {
	createErr error
	found     *models.StudentDetail

	created []*models.Student
	deleted []string
}

func (f *fakeStudentRepo) List(context.Context, authz.Filter, int, int) ([]models.StudentDetail, int, error) {
	return nil, 0, nil
}

func (f *fakeStudentRepo) FindByID(context.Context, string) (*models.StudentDetail, error) {
	if f.found == nil {
		return nil, errors.New("not stubbed")
	}
	return f.found, nil
}

func (f *fakeStudentRepo) CreateEnrolled(_ context.Context, student *models.Student) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, student)
	return nil
}

func (f *fakeStudentRepo) Update(context.Context, *models.Student) error { return nil }

func (f *fakeStudentRepo) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func validStudentCreate() StudentCreateRequest {
	return StudentCreateRequest{
		Username:     "jdoe",
		Password:     "supersecret",
		Name:         "Jane",
		Surname:      "Doe",
		Sex:          "FEMALE",
		Birthday:     time.Date(2008, 4, 2, 0, 0, 0, 0, time.UTC),
		ClassID:      "class-1",
		DepartmentID: "dept-1",
	}
}

func TestStudentCreateFullClassSurfacesConflictAndCompensates(t *testing.T) {
	provider := &fakeIdentity{createID: "acct-1"}
	repo := &fakeStudentRepo{createErr: appErrors.ErrClassFull}
	svc := NewStudentService(repo, provider, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), &fakeQueue{}, nil, nil)

	_, err := svc.Create(context.Background(), admin(), validStudentCreate())
	assert.ErrorIs(t, err, appErrors.ErrClassFull)
	assert.Equal(t, []string{"acct-1"}, provider.deleted)
}

func TestStudentCreateEnrollsWithProvisionedID(t *testing.T) {
	provider := &fakeIdentity{createID: "acct-9"}
	repo := &fakeStudentRepo{}
	queue := &fakeQueue{}
	svc := NewStudentService(repo, provider, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), queue, nil, nil)

	student, err := svc.Create(context.Background(), admin(), validStudentCreate())
	require.NoError(t, err)
	assert.Equal(t, "acct-9", student.ID)
	assert.Equal(t, "class-1", student.ClassID)
	assert.Len(t, queue.jobsOfType(JobChatUpsert), 1)
}

func TestStudentGetLimitsStudentsToThemselves(t *testing.T) {
	repo := &fakeStudentRepo{found: &models.StudentDetail{Student: models.Student{ID: "stu-1"}}}
	svc := NewStudentService(repo, &fakeIdentity{}, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), &fakeQueue{}, nil, nil)

	self := authz.Principal{UserID: "stu-1", Role: models.RoleStudent}
	student, err := svc.Get(context.Background(), self, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "stu-1", student.ID)

	_, err = svc.Get(context.Background(), self, "stu-2")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestStudentMutationsDeniedForTeachers(t *testing.T) {
	repo := &fakeStudentRepo{}
	svc := NewStudentService(repo, &fakeIdentity{}, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), &fakeQueue{}, nil, nil)

	p := authz.Principal{UserID: "teacher-1", Role: models.RoleTeacher}
	_, err := svc.Create(context.Background(), p, validStudentCreate())
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Empty(t, repo.created)
}
