package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/threadflow/internal/models"
)

// PostHistoryRepository is append-only: rows are created once per successful
// publication and never updated or deleted.
type PostHistoryRepository interface {
	Create(ctx context.Context, h *models.PostHistory) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.PostHistory, error)
	List(ctx context.Context, limit int) ([]*models.PostHistory, error)
}

type postHistoryRepository struct {
	db *sql.DB
}

func NewPostHistoryRepository(db *sql.DB) PostHistoryRepository {
	return &postHistoryRepository{db: db}
}

const historyColumns = `id, container_id, thread_id, text, media_type, attachments, published_at, created_at`

func (r *postHistoryRepository) Create(ctx context.Context, h *models.PostHistory) (int64, error) {
	query := `
		INSERT INTO post_history (container_id, thread_id, text, media_type, attachments, published_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	attachments, err := marshalNullable(h.Attachments, len(h.Attachments) > 0)
	if err != nil {
		return 0, err
	}

	var id int64
	err = r.db.QueryRowContext(ctx, query,
		h.ContainerID, h.ThreadID, h.Text, h.MediaType, attachments, h.PublishedAt).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postHistoryRepository) GetByID(ctx context.Context, id int64) (*models.PostHistory, error) {
	query := `SELECT ` + historyColumns + ` FROM post_history WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	h, err := scanHistory(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return h, nil
}

func (r *postHistoryRepository) List(ctx context.Context, limit int) ([]*models.PostHistory, error) {
	query := `SELECT ` + historyColumns + ` FROM post_history ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var hs []*models.PostHistory
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		hs = append(hs, h)
	}
	return hs, rows.Err()
}

func scanHistory(row rowScanner) (*models.PostHistory, error) {
	var h models.PostHistory
	var containerID sql.NullString
	var attachments []byte

	err := row.Scan(&h.ID, &containerID, &h.ThreadID, &h.Text, &h.MediaType,
		&attachments, &h.PublishedAt, &h.CreatedAt)
	if err != nil {
		return nil, err
	}

	if containerID.Valid {
		h.ContainerID = &containerID.String
	}
	if attachments != nil {
		if err := json.Unmarshal(attachments, &h.Attachments); err != nil {
			return nil, fmt.Errorf("error decoding attachments for history %d: %w", h.ID, err)
		}
	}
	return &h, nil
}
