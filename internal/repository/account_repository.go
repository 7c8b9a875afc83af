package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/threadflow/internal/models"
)

type AccountRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	GetByThreadsUserID(ctx context.Context, threadsUserID string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) (int64, error)
	List(ctx context.Context) ([]*models.Account, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Remove(ctx context.Context, id int64) error
}

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, threads_user_id, username, access_token, token_expires_at, is_active, created_at, updated_at`

func (r *accountRepository) Create(ctx context.Context, account *models.Account) (int64, error) {
	query := `
		INSERT INTO accounts (threads_user_id, username, access_token, token_expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		account.ThreadsUserID, account.Username, account.AccessToken,
		account.TokenExpiresAt, account.IsActive).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	account, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return account, nil
}

func (r *accountRepository) GetByThreadsUserID(ctx context.Context, threadsUserID string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE threads_user_id = $1`
	row := r.db.QueryRowContext(ctx, query, threadsUserID)

	account, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return account, nil
}

func (r *accountRepository) List(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *accountRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE accounts SET is_active = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, active, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *accountRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM accounts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	var tokenExpiresAt sql.NullTime

	err := row.Scan(
		&account.ID, &account.ThreadsUserID, &account.Username, &account.AccessToken,
		&tokenExpiresAt, &account.IsActive, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if tokenExpiresAt.Valid {
		account.TokenExpiresAt = &tokenExpiresAt.Time
	}
	return &account, nil
}
