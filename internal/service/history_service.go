package service

import (
	"context"
	"fmt"

	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/repository"
)

type HistoryService interface {
	List(ctx context.Context, limit int) ([]*models.PostHistory, error)
}

type historyService struct {
	hr repository.PostHistoryRepository
}

func NewHistoryService(hr repository.PostHistoryRepository) HistoryService {
	return &historyService{hr: hr}
}

func (s *historyService) List(ctx context.Context, limit int) ([]*models.PostHistory, error) {
	const maxLimit = 200
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}

	history, err := s.hr.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing post history: %w", err)
	}
	return history, nil
}
