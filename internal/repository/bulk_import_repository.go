package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/threadflow/internal/models"
)

type BulkImportRepository interface {
	Create(ctx context.Context, imp *models.BulkImport) (int64, error)
	List(ctx context.Context, limit int) ([]*models.BulkImport, error)
}

type bulkImportRepository struct {
	db *sql.DB
}

func NewBulkImportRepository(db *sql.DB) BulkImportRepository {
	return &bulkImportRepository{db: db}
}

func (r *bulkImportRepository) Create(ctx context.Context, imp *models.BulkImport) (int64, error) {
	query := `
		INSERT INTO bulk_imports (reference, total_rows, created_rows, failed_rows, status, error_summary)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		imp.Reference, imp.TotalRows, imp.CreatedRows, imp.FailedRows,
		imp.Status, nullString(imp.ErrorSummary)).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *bulkImportRepository) List(ctx context.Context, limit int) ([]*models.BulkImport, error) {
	query := `SELECT id, reference, total_rows, created_rows, failed_rows, status, error_summary, created_at
		FROM bulk_imports ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var imps []*models.BulkImport
	for rows.Next() {
		var imp models.BulkImport
		var errorSummary sql.NullString
		err := rows.Scan(&imp.ID, &imp.Reference, &imp.TotalRows, &imp.CreatedRows,
			&imp.FailedRows, &imp.Status, &errorSummary, &imp.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		imp.ErrorSummary = errorSummary.String
		imps = append(imps, &imp)
	}
	return imps, rows.Err()
}
