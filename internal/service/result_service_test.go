package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
)

type fakeResultRepo struct {
	listed  []models.ResultDetail
	created []*models.Result
	listErr error
}

func (f *fakeResultRepo) List(context.Context, authz.Filter, int, int) ([]models.ResultDetail, int, error) {
	return f.listed, len(f.listed), f.listErr
}

func (f *fakeResultRepo) ListAll(context.Context, authz.Filter) ([]models.ResultDetail, error) {
	return f.listed, f.listErr
}

func (f *fakeResultRepo) Create(_ context.Context, result *models.Result) error {
	f.created = append(f.created, result)
	return nil
}

func (f *fakeResultRepo) Update(context.Context, *models.Result) error { return nil }
func (f *fakeResultRepo) Delete(context.Context, string) error         { return nil }

func strPtr(s string) *string { return &s }

func TestResultCreateRequiresExactlyOneParent(t *testing.T) {
	svc := NewResultService(&fakeResultRepo{}, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), nil, nil)

	cases := []struct {
		name string
		req  ResultRequest
	}{
		{"neither", ResultRequest{Score: 80, StudentID: "stu-1"}},
		{"both", ResultRequest{Score: 80, StudentID: "stu-1", ExamID: strPtr("E1"), AssignmentID: strPtr("A1")}},
		{"empty strings", ResultRequest{Score: 80, StudentID: "stu-1", ExamID: strPtr(""), AssignmentID: strPtr("")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), admin(), tc.req)
			require.Error(t, err)
			var appErr *appErrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
		})
	}
}

func TestResultCreateAcceptsSingleParent(t *testing.T) {
	repo := &fakeResultRepo{}
	svc := NewResultService(repo, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), nil, nil)

	_, err := svc.Create(context.Background(), admin(), ResultRequest{Score: 95, StudentID: "stu-1", ExamID: strPtr("E1")})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "E1", *repo.created[0].ExamID)
	assert.Nil(t, repo.created[0].AssignmentID)
}

func TestResultCreateRejectsOutOfRangeScore(t *testing.T) {
	svc := NewResultService(&fakeResultRepo{}, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), nil, nil)

	_, err := svc.Create(context.Background(), admin(), ResultRequest{Score: 120, StudentID: "stu-1", ExamID: strPtr("E1")})
	require.Error(t, err)
}

func TestResultGetOutOfScopeIsNotFound(t *testing.T) {
	svc := NewResultService(&fakeResultRepo{}, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), nil, nil)

	_, err := svc.Get(context.Background(), authz.Principal{UserID: "stu-1", Role: models.RoleStudent}, "r-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestResultExportRendersCSV(t *testing.T) {
	repo := &fakeResultRepo{listed: []models.ResultDetail{
		{
			Result:      models.Result{ID: "r-1", Score: 88, StudentID: "stu-1"},
			Title:       "Midterm",
			StudentName: "Jane Doe",
			ClassName:   "10A",
			TeacherName: "John Smith",
		},
	}}
	svc := NewResultService(repo, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), nil, nil)

	file, err := svc.Export(context.Background(), admin(), models.ListQuery{}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "results.csv", file.Name)
	assert.Equal(t, "text/csv", file.ContentType)

	body := string(file.Data)
	assert.True(t, strings.HasPrefix(body, "Student,Class,Assessment,Teacher,Score"))
	assert.Contains(t, body, "Jane Doe,10A,Midterm,John Smith,88")
}

func TestResultExportRendersPDF(t *testing.T) {
	svc := NewResultService(&fakeResultRepo{}, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), nil, nil)

	file, err := svc.Export(context.Background(), admin(), models.ListQuery{}, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.NotEmpty(t, file.Data)
}

func TestResultExportRejectsUnknownFormat(t *testing.T) {
	svc := NewResultService(&fakeResultRepo{}, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), nil, nil)

	_, err := svc.Export(context.Background(), admin(), models.ListQuery{}, "xlsx")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
