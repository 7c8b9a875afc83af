package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/repository"
	"github.com/maheshrc27/threadflow/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ImportService bulk-creates posts from a JSON batch. Rows are independent:
// a bad row is recorded and skipped, the rest of the batch still imports.
type ImportService interface {
	Import(ctx context.Context, req *transfer.ImportRequest) (*transfer.ImportResult, error)
	List(ctx context.Context, limit int) ([]*models.BulkImport, error)
}

type importService struct {
	ps PostService
	br repository.BulkImportRepository
}

func NewImportService(ps PostService, br repository.BulkImportRepository) ImportService {
	return &importService{ps: ps, br: br}
}

const maxImportRows = 500

func (s *importService) Import(ctx context.Context, req *transfer.ImportRequest) (*transfer.ImportResult, error) {
	if req == nil || len(req.Posts) == 0 {
		err := errors.New("import request has no posts")
		slog.Info(err.Error())
		return nil, err
	}
	if len(req.Posts) > maxImportRows {
		return nil, fmt.Errorf("import exceeds the %d row limit", maxImportRows)
	}

	reference, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	result := &transfer.ImportResult{
		Reference: reference,
		Total:     len(req.Posts),
	}

	for i := range req.Posts {
		pc := req.Posts[i]
		if _, err := s.ps.CreatePost(ctx, &pc); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		result.Created++
	}

	record := &models.BulkImport{
		Reference:   reference,
		TotalRows:   result.Total,
		CreatedRows: result.Created,
		FailedRows:  result.Failed,
		Status:      importStatus(result),
	}
	if len(result.Errors) > 0 {
		record.ErrorSummary = result.Errors[0]
		if len(result.Errors) > 1 {
			record.ErrorSummary = fmt.Sprintf("%s (+%d more)", result.Errors[0], len(result.Errors)-1)
		}
	}

	if _, err := s.br.Create(ctx, record); err != nil {
		slog.Error("error recording bulk import", "reference", reference, "error", err)
	}

	return result, nil
}

func importStatus(result *transfer.ImportResult) string {
	switch {
	case result.Failed == 0:
		return models.ImportStatusCompleted
	case result.Created == 0:
		return models.ImportStatusFailed
	default:
		return models.ImportStatusPartial
	}
}

func (s *importService) List(ctx context.Context, limit int) ([]*models.BulkImport, error) {
	imports, err := s.br.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing imports: %w", err)
	}
	return imports, nil
}
