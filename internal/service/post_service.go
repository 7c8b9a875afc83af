package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/repository"
	"github.com/maheshrc27/threadflow/internal/transfer"
)

// PostService is the composer: it validates input, derives the media type
// from the attachments, extracts spoiler spans once at save time, and
// persists the post in draft or scheduled state.
type PostService interface {
	CreatePost(ctx context.Context, pc *transfer.PostCreation) (int64, error)
	UpdatePost(ctx context.Context, postID int64, pc *transfer.PostCreation) error
	PostInfo(ctx context.Context, postID int64) (*models.Post, error)
	List(ctx context.Context, status string, limit int) ([]*models.Post, error)
	Remove(ctx context.Context, postID int64) error
}

type postService struct {
	pr repository.PostRepository
	ar repository.AccountRepository
}

func NewPostService(pr repository.PostRepository, ar repository.AccountRepository) PostService {
	return &postService{pr: pr, ar: ar}
}

const scheduledTimeLayout = "2006-01-02T15:04"

func (s *postService) CreatePost(ctx context.Context, pc *transfer.PostCreation) (int64, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return 0, err
	}
	if pc.Text == "" && len(pc.Attachments) == 0 {
		err := errors.New("post needs text or at least one attachment")
		slog.Info(err.Error())
		return 0, err
	}

	post, err := s.buildPost(ctx, pc)
	if err != nil {
		return 0, err
	}

	postID, err := s.pr.Create(ctx, nil, post)
	if err != nil {
		return 0, fmt.Errorf("error creating post: %w", err)
	}

	return postID, nil
}

func (s *postService) UpdatePost(ctx context.Context, postID int64, pc *transfer.PostCreation) error {
	existing, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if existing == nil {
		err = errors.New("Post doesn't exist")
		slog.Info(err.Error())
		return err
	}
	if existing.Status == models.PostStatusPublishing || existing.Status == models.PostStatusPublished {
		return fmt.Errorf("post %d can no longer be edited", postID)
	}

	post, err := s.buildPost(ctx, pc)
	if err != nil {
		return err
	}

	update := &models.PostUpdate{
		Text:           &post.Text,
		MediaType:      &post.MediaType,
		Attachments:    &post.Attachments,
		TextEntities:   &post.TextEntities,
		ReplyControl:   &post.ReplyControl,
		ReplyToID:      &post.ReplyToID,
		LinkAttachment: &post.LinkAttachment,
		TopicTag:       &post.TopicTag,
		QuotePostID:    &post.QuotePostID,
		IsSpoilerMedia: &post.IsSpoilerMedia,
		ScheduledFor:   &post.ScheduledFor,
		Status:         &post.Status,
	}
	if post.Poll != nil {
		update.Poll = post.Poll
	}
	if post.AccountID != nil {
		update.AccountID = post.AccountID
	}

	if _, err := s.pr.Update(ctx, postID, update); err != nil {
		return fmt.Errorf("error updating post: %w", err)
	}
	return nil
}

// buildPost turns composer input into a storable post. Spoiler extraction
// happens here, exactly once: the stored text no longer contains markers,
// so a later publish attempt finds nothing left to extract.
func (s *postService) buildPost(ctx context.Context, pc *transfer.PostCreation) (*models.Post, error) {
	text, entities := ExtractSpoilers(pc.Text)

	post := &models.Post{
		Text:           text,
		TextEntities:   entities,
		ReplyControl:   pc.ReplyControl,
		ReplyToID:      pc.ReplyToID,
		LinkAttachment: pc.LinkAttachment,
		QuotePostID:    pc.QuotePostID,
		IsSpoilerMedia: pc.IsSpoilerMedia,
	}

	// Topic tags outside the allowed shape are dropped rather than rejected.
	if len(pc.TopicTag) >= 1 && len(pc.TopicTag) <= 50 &&
		!strings.Contains(pc.TopicTag, ".") && !strings.Contains(pc.TopicTag, "&") {
		post.TopicTag = pc.TopicTag
	}

	switch len(pc.Attachments) {
	case 0:
		post.MediaType = models.MediaTypeText
	case 1:
		if pc.Attachments[0].Type == models.AttachmentTypeVideo {
			post.MediaType = models.MediaTypeVideo
		} else {
			post.MediaType = models.MediaTypeImage
		}
	default:
		post.MediaType = models.MediaTypeCarousel
	}
	for _, a := range pc.Attachments {
		if a.Type != models.AttachmentTypeImage && a.Type != models.AttachmentTypeVideo {
			return nil, fmt.Errorf("unknown attachment type %q", a.Type)
		}
		if a.URL == "" {
			return nil, errors.New("attachment url cannot be empty")
		}
		post.Attachments = append(post.Attachments, models.Attachment{
			Type:    a.Type,
			URL:     a.URL,
			AltText: a.AltText,
		})
	}

	poll, err := buildPoll(pc)
	if err != nil {
		return nil, err
	}
	post.Poll = poll

	if pc.AccountID != 0 {
		exists, err := s.ar.GetByID(ctx, pc.AccountID)
		if err != nil {
			return nil, err
		}
		if exists == nil {
			return nil, fmt.Errorf("account %d does not exist", pc.AccountID)
		}
		post.AccountID = &pc.AccountID
	}

	post.Status = models.PostStatusDraft
	post.ScheduledFor = time.Now()
	if pc.SaveType == "schedule" {
		if pc.ScheduledFor == "" {
			return nil, errors.New("scheduled time is required for scheduling")
		}
		scheduledFor, err := time.Parse(scheduledTimeLayout, pc.ScheduledFor)
		if err != nil {
			err = fmt.Errorf("invalid scheduled time format: %w", err)
			slog.Error(err.Error())
			return nil, err
		}
		post.ScheduledFor = scheduledFor
		post.Status = models.PostStatusScheduled
	}

	return post, nil
}

func buildPoll(pc *transfer.PostCreation) (*models.PollAttachment, error) {
	if pc.PollOptionA == "" && pc.PollOptionB == "" && pc.PollOptionC == "" && pc.PollOptionD == "" {
		return nil, nil
	}
	if pc.PollOptionA == "" || pc.PollOptionB == "" {
		return nil, errors.New("a poll needs at least options A and B")
	}
	return &models.PollAttachment{
		OptionA: pc.PollOptionA,
		OptionB: pc.PollOptionB,
		OptionC: pc.PollOptionC,
		OptionD: pc.PollOptionD,
	}, nil
}

func (s *postService) PostInfo(ctx context.Context, postID int64) (*models.Post, error) {
	if postID == 0 {
		err := errors.New("post id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting post info: %w", err)
	}
	if post == nil {
		err = errors.New("Post doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (s *postService) List(ctx context.Context, status string, limit int) ([]*models.Post, error) {
	posts, err := s.pr.List(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}

func (s *postService) Remove(ctx context.Context, postID int64) error {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		err = errors.New("Post doesn't exist")
		slog.Info(err.Error())
		return err
	}

	if err := s.pr.Remove(ctx, postID); err != nil {
		return fmt.Errorf("error removing post: %w", err)
	}
	return nil
}
