package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	config "github.com/maheshrc27/threadflow/configs"
	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/repository"
	"github.com/maheshrc27/threadflow/internal/transfer"
	"github.com/maheshrc27/threadflow/pkg/utils"
)

// AccountService manages connected Threads accounts and resolves the
// credential a post publishes with. Tokens are encrypted at rest and only
// decrypted at publish time.
type AccountService interface {
	Create(ctx context.Context, ac *transfer.AccountCreation) (int64, error)
	List(ctx context.Context) ([]*models.Account, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Remove(ctx context.Context, id int64) error
	ResolveToken(ctx context.Context, post *models.Post) (string, error)
}

type accountService struct {
	cfg config.Config
	ar  repository.AccountRepository
}

func NewAccountService(cfg config.Config, ar repository.AccountRepository) AccountService {
	return &accountService{cfg: cfg, ar: ar}
}

func (s *accountService) Create(ctx context.Context, ac *transfer.AccountCreation) (int64, error) {
	if ac.ThreadsUserID == "" || ac.AccessToken == "" {
		err := errors.New("threads_user_id and access_token are required")
		slog.Info(err.Error())
		return 0, err
	}

	existing, err := s.ar.GetByThreadsUserID(ctx, ac.ThreadsUserID)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, fmt.Errorf("account %s is already connected", ac.ThreadsUserID)
	}

	encryptedToken, err := utils.Encrypt([]byte(ac.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return 0, fmt.Errorf("error encrypting access token: %w", err)
	}

	account := &models.Account{
		ThreadsUserID: ac.ThreadsUserID,
		Username:      ac.Username,
		AccessToken:   encryptedToken,
		IsActive:      true,
	}
	if ac.TokenExpiresAt > 0 {
		expiresAt := time.Unix(ac.TokenExpiresAt, 0)
		account.TokenExpiresAt = &expiresAt
	}

	return s.ar.Create(ctx, account)
}

func (s *accountService) List(ctx context.Context) ([]*models.Account, error) {
	accounts, err := s.ar.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing accounts: %w", err)
	}
	return accounts, nil
}

func (s *accountService) SetActive(ctx context.Context, id int64, active bool) error {
	return s.ar.SetActive(ctx, id, active)
}

func (s *accountService) Remove(ctx context.Context, id int64) error {
	return s.ar.Remove(ctx, id)
}

// ResolveToken returns the decrypted access token for the post's account.
// A missing account reference, unknown or deactivated account, or an
// unusable token all resolve to ErrMissingCredential.
func (s *accountService) ResolveToken(ctx context.Context, post *models.Post) (string, error) {
	if post.AccountID == nil {
		slog.Info("post has no account assigned", "post_id", post.ID)
		return "", ErrMissingCredential
	}

	account, err := s.ar.GetByID(ctx, *post.AccountID)
	if err != nil {
		return "", err
	}
	if account == nil || !account.IsActive || account.AccessToken == "" {
		slog.Info("account unusable for post", "post_id", post.ID, "account_id", *post.AccountID)
		return "", ErrMissingCredential
	}

	accessToken, err := utils.Decrypt(account.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		slog.Info("error decrypting access token", "account_id", account.ID)
		return "", ErrMissingCredential
	}
	if accessToken == "" {
		return "", ErrMissingCredential
	}

	return accessToken, nil
}
