package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
	"github.com/class-unity/classunity-api/pkg/export"
)

type resultRepository interface {
	List(ctx context.Context, filter authz.Filter, page, size int) ([]models.ResultDetail, int, error)
	ListAll(ctx context.Context, filter authz.Filter) ([]models.ResultDetail, error)
	Create(ctx context.Context, result *models.Result) error
	Update(ctx context.Context, result *models.Result) error
	Delete(ctx context.Context, id string) error
}

// ResultService handles result workflows, including export.
type ResultService struct {
	repo      resultRepository
	guard     *authz.MutationGuard
	cache     *CacheService
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResultService constructs the service.
func NewResultService(repo resultRepository, guard *authz.MutationGuard, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ResultService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultService{
		repo:      repo,
		guard:     guard,
		cache:     cache,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// ResultRequest describes the create/update payload. Exactly one of ExamID
// and AssignmentID must be set.
type ResultRequest struct {
	Score        int     `json:"score" validate:"gte=0,lte=100"`
	ExamID       *string `json:"exam_id"`
	AssignmentID *string `json:"assignment_id"`
	StudentID    string  `json:"student_id" validate:"required"`
}

type resultListPayload struct {
	Results []models.ResultDetail `json:"results"`
	Total   int                   `json:"total"`
}

// ExportFile is a rendered results export.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// List returns the results visible to the principal.
func (s *ResultService) List(ctx context.Context, p authz.Principal, q models.ListQuery) ([]models.ResultDetail, *models.Pagination, error) {
	key := s.cache.ListKey(authz.TableResult, p, q)
	var cached resultListPayload
	if s.cache.GetList(ctx, key, &cached) {
		return cached.Results, pagination(q, cached.Total), nil
	}

	filter := authz.Scope(authz.TableResult, p, q)
	results, total, err := s.repo.List(ctx, filter, q.Page, q.PageSize)
	if err != nil {
		return nil, nil, storageError(err, "results")
	}

	s.cache.SetList(ctx, key, resultListPayload{Results: results, Total: total})
	return results, pagination(q, total), nil
}

// Get returns one result if it falls inside the principal's scope.
func (s *ResultService) Get(ctx context.Context, p authz.Principal, id string) (*models.ResultDetail, error) {
	filter := scopedID(authz.Scope(authz.TableResult, p, models.ListQuery{}), "r.id", id)
	results, _, err := s.repo.List(ctx, filter, 1, 1)
	if err != nil {
		return nil, storageError(err, "result")
	}
	if len(results) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "result not found")
	}
	return &results[0], nil
}

// Create registers a new result after the ownership check.
func (s *ResultService) Create(ctx context.Context, p authz.Principal, req ResultRequest) (*models.Result, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(ctx, p, authz.TableResult, authz.ActionCreate, s.mutationRef("", req)); err != nil {
		return nil, err
	}

	result := s.toModel("", req)
	if err := s.repo.Create(ctx, result); err != nil {
		return nil, storageError(err, "result")
	}
	s.cache.InvalidateEntity(ctx, authz.TableResult)
	return result, nil
}

// Update modifies an existing result after the ownership check.
func (s *ResultService) Update(ctx context.Context, p authz.Principal, id string, req ResultRequest) (*models.Result, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(ctx, p, authz.TableResult, authz.ActionUpdate, s.mutationRef(id, req)); err != nil {
		return nil, err
	}

	result := s.toModel(id, req)
	if err := s.repo.Update(ctx, result); err != nil {
		return nil, storageError(err, "result")
	}
	s.cache.InvalidateEntity(ctx, authz.TableResult)
	return result, nil
}

// Delete removes a result after the ownership check.
func (s *ResultService) Delete(ctx context.Context, p authz.Principal, id string) error {
	if err := s.guard.Authorize(ctx, p, authz.TableResult, authz.ActionDelete, authz.MutationRef{RowID: id}); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError(err, "result")
	}
	s.cache.InvalidateEntity(ctx, authz.TableResult)
	return nil
}

// Export renders every result in the principal's scope as CSV or PDF.
func (s *ResultService) Export(ctx context.Context, p authz.Principal, q models.ListQuery, format string) (*ExportFile, error) {
	filter := authz.Scope(authz.TableResult, p, q)
	results, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, storageError(err, "results")
	}

	dataset := export.Dataset{
		Headers: []string{"Student", "Class", "Assessment", "Teacher", "Score"},
		Rows:    make([]map[string]string, len(results)),
	}
	for i, result := range results {
		dataset.Rows[i] = map[string]string{
			"Student":    result.StudentName,
			"Class":      result.ClassName,
			"Assessment": result.Title,
			"Teacher":    result.TeacherName,
			"Score":      strconv.Itoa(result.Score),
		}
	}

	switch strings.ToLower(format) {
	case "", "csv":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{Name: "results.csv", ContentType: "text/csv", Data: data}, nil
	case "pdf":
		data, err := s.pdf.Render(dataset, "Results")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{Name: "results.pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *ResultService) validate(req ResultRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	hasExam := req.ExamID != nil && *req.ExamID != ""
	hasAssignment := req.AssignmentID != nil && *req.AssignmentID != ""
	if hasExam == hasAssignment {
		return appErrors.Clone(appErrors.ErrValidation, "result must reference exactly one exam or assignment")
	}
	return nil
}

func (s *ResultService) mutationRef(id string, req ResultRequest) authz.MutationRef {
	ref := authz.MutationRef{RowID: id}
	if req.ExamID != nil {
		ref.ExamID = *req.ExamID
	}
	if req.AssignmentID != nil {
		ref.AssignmentID = *req.AssignmentID
	}
	return ref
}

func (s *ResultService) toModel(id string, req ResultRequest) *models.Result {
	return &models.Result{
		ID:           id,
		Score:        req.Score,
		ExamID:       req.ExamID,
		AssignmentID: req.AssignmentID,
		StudentID:    req.StudentID,
	}
}
