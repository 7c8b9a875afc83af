package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/threadflow/internal/models"
)

type PostRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	List(ctx context.Context, status string, limit int) ([]*models.Post, error)
	GetDue(ctx context.Context, now time.Time) ([]*models.Post, error)
	GetStuckPublishing(ctx context.Context, before time.Time) ([]*models.Post, error)
	Update(ctx context.Context, id int64, update *models.PostUpdate) (int64, error)
	Remove(ctx context.Context, id int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, account_id, text, media_type, attachments, poll_attachment, text_entities,
	reply_control, reply_to_id, link_attachment, topic_tag, quote_post_id, is_spoiler_media,
	scheduled_for, status, retry_count, error_message, container_id, thread_id, published_at,
	created_at, updated_at`

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (account_id, text, media_type, attachments, poll_attachment, text_entities,
			reply_control, reply_to_id, link_attachment, topic_tag, quote_post_id, is_spoiler_media,
			scheduled_for, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`

	attachments, err := marshalNullable(post.Attachments, len(post.Attachments) > 0)
	if err != nil {
		return 0, err
	}
	poll, err := marshalNullable(post.Poll, post.Poll != nil)
	if err != nil {
		return 0, err
	}
	entities, err := marshalNullable(post.TextEntities, len(post.TextEntities) > 0)
	if err != nil {
		return 0, err
	}

	args := []interface{}{
		post.AccountID, post.Text, post.MediaType, attachments, poll, entities,
		nullString(post.ReplyControl), nullString(post.ReplyToID), nullString(post.LinkAttachment),
		nullString(post.TopicTag), nullString(post.QuotePostID), post.IsSpoilerMedia,
		post.ScheduledFor, post.Status,
	}

	var id int64
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) List(ctx context.Context, status string, limit int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY scheduled_for DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	return r.queryPosts(ctx, query, args...)
}

// GetDue returns scheduled posts whose publish time has arrived, earliest
// deadline first.
func (r *postRepository) GetDue(ctx context.Context, now time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE status = $1 AND scheduled_for <= $2
		ORDER BY scheduled_for ASC`
	return r.queryPosts(ctx, query, models.PostStatusScheduled, now)
}

// GetStuckPublishing returns posts left in the publishing state since before
// the cutoff, i.e. a publish attempt was interrupted mid-flight.
func (r *postRepository) GetStuckPublishing(ctx context.Context, before time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE status = $1 AND updated_at < $2
		ORDER BY scheduled_for ASC`
	return r.queryPosts(ctx, query, models.PostStatusPublishing, before)
}

// Update applies a partial update and stamps updated_at. Returns the number
// of rows affected; updating a row deleted in the meantime is a no-op.
func (r *postRepository) Update(ctx context.Context, id int64, update *models.PostUpdate) (int64, error) {
	query, args, err := buildPostUpdateQuery(id, update)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return res.RowsAffected()
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func buildPostUpdateQuery(id int64, update *models.PostUpdate) (string, []interface{}, error) {
	var sets []string
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.AccountID != nil {
		add("account_id", *update.AccountID)
	}
	if update.Text != nil {
		add("text", *update.Text)
	}
	if update.MediaType != nil {
		add("media_type", *update.MediaType)
	}
	if update.Attachments != nil {
		data, err := marshalNullable(*update.Attachments, len(*update.Attachments) > 0)
		if err != nil {
			return "", nil, err
		}
		add("attachments", data)
	}
	if update.Poll != nil {
		data, err := json.Marshal(update.Poll)
		if err != nil {
			return "", nil, err
		}
		add("poll_attachment", data)
	}
	if update.TextEntities != nil {
		data, err := marshalNullable(*update.TextEntities, len(*update.TextEntities) > 0)
		if err != nil {
			return "", nil, err
		}
		add("text_entities", data)
	}
	if update.ReplyControl != nil {
		add("reply_control", nullString(*update.ReplyControl))
	}
	if update.ReplyToID != nil {
		add("reply_to_id", nullString(*update.ReplyToID))
	}
	if update.LinkAttachment != nil {
		add("link_attachment", nullString(*update.LinkAttachment))
	}
	if update.TopicTag != nil {
		add("topic_tag", nullString(*update.TopicTag))
	}
	if update.QuotePostID != nil {
		add("quote_post_id", nullString(*update.QuotePostID))
	}
	if update.IsSpoilerMedia != nil {
		add("is_spoiler_media", *update.IsSpoilerMedia)
	}
	if update.ScheduledFor != nil {
		add("scheduled_for", *update.ScheduledFor)
	}
	if update.Status != nil {
		add("status", *update.Status)
	}
	if update.RetryCount != nil {
		add("retry_count", *update.RetryCount)
	}
	if update.ErrorMessage != nil {
		add("error_message", *update.ErrorMessage)
	}
	if update.ContainerID != nil {
		add("container_id", *update.ContainerID)
	}
	if update.ThreadID != nil {
		add("thread_id", *update.ThreadID)
	}
	if update.PublishedAt != nil {
		add("published_at", *update.PublishedAt)
	}

	add("updated_at", time.Now())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE posts SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	return query, args, nil
}

func (r *postRepository) queryPosts(ctx context.Context, query string, args ...interface{}) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	var accountID sql.NullInt64
	var attachments, poll, entities []byte
	var replyControl, replyToID, linkAttachment, topicTag, quotePostID sql.NullString
	var errorMessage, containerID, threadID sql.NullString
	var publishedAt sql.NullTime

	err := row.Scan(
		&post.ID, &accountID, &post.Text, &post.MediaType, &attachments, &poll, &entities,
		&replyControl, &replyToID, &linkAttachment, &topicTag, &quotePostID, &post.IsSpoilerMedia,
		&post.ScheduledFor, &post.Status, &post.RetryCount, &errorMessage, &containerID, &threadID,
		&publishedAt, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if accountID.Valid {
		post.AccountID = &accountID.Int64
	}
	if attachments != nil {
		if err := json.Unmarshal(attachments, &post.Attachments); err != nil {
			return nil, fmt.Errorf("error decoding attachments for post %d: %w", post.ID, err)
		}
	}
	if poll != nil {
		if err := json.Unmarshal(poll, &post.Poll); err != nil {
			return nil, fmt.Errorf("error decoding poll for post %d: %w", post.ID, err)
		}
	}
	if entities != nil {
		if err := json.Unmarshal(entities, &post.TextEntities); err != nil {
			return nil, fmt.Errorf("error decoding text entities for post %d: %w", post.ID, err)
		}
	}
	post.ReplyControl = replyControl.String
	post.ReplyToID = replyToID.String
	post.LinkAttachment = linkAttachment.String
	post.TopicTag = topicTag.String
	post.QuotePostID = quotePostID.String
	if errorMessage.Valid {
		post.ErrorMessage = &errorMessage.String
	}
	if containerID.Valid {
		post.ContainerID = &containerID.String
	}
	if threadID.Valid {
		post.ThreadID = &threadID.String
	}
	if publishedAt.Valid {
		post.PublishedAt = &publishedAt.Time
	}

	return &post, nil
}

func marshalNullable(v interface{}, present bool) ([]byte, error) {
	if !present {
		return nil, nil
	}
	return json.Marshal(v)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
