package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/repository"
)

// MaxRetryCount is the publish attempt budget. A post failing its third
// attempt is marked failed for good.
const MaxRetryCount = 3

// PublisherService drives a single post through the publish state machine:
// resolve the account token, build the payload, run the protocol, then
// record the outcome. Used by both the scheduler loop and the task worker.
type PublisherService interface {
	Publish(ctx context.Context, post *models.Post) error
}

type publisherService struct {
	pr repository.PostRepository
	hr repository.PostHistoryRepository
	as AccountService
	tc ThreadsClient
}

func NewPublisherService(
	pr repository.PostRepository,
	hr repository.PostHistoryRepository,
	as AccountService,
	tc ThreadsClient) PublisherService {
	return &publisherService{
		pr: pr,
		hr: hr,
		as: as,
		tc: tc,
	}
}

func (s *publisherService) Publish(ctx context.Context, post *models.Post) error {
	log.Printf("Publishing scheduled post %d...", post.ID)

	accessToken, err := s.as.ResolveToken(ctx, post)
	if err != nil {
		if errors.Is(err, ErrMissingCredential) {
			// No network attempt was made; retrying cannot help.
			s.update(ctx, post.ID, &models.PostUpdate{
				Status:       ptr(models.PostStatusFailed),
				ErrorMessage: ptr(ErrMissingCredential.Error()),
			})
			return err
		}
		return s.handleFailure(ctx, post, err)
	}

	params, err := BuildPublishParams(post)
	if err != nil {
		// Bad stored data is a defect, not a transient condition.
		log.Printf("ERROR: cannot build payload for post %d: %v", post.ID, err)
		s.update(ctx, post.ID, &models.PostUpdate{
			Status:       ptr(models.PostStatusFailed),
			ErrorMessage: ptr(failureMessage(err)),
		})
		return err
	}

	s.update(ctx, post.ID, &models.PostUpdate{Status: ptr(models.PostStatusPublishing)})

	threadID, containerID, err := s.runProtocol(ctx, post, params, accessToken)
	if err != nil {
		return s.handleFailure(ctx, post, err)
	}

	now := time.Now()
	s.update(ctx, post.ID, &models.PostUpdate{
		Status:      ptr(models.PostStatusPublished),
		ThreadID:    &threadID,
		PublishedAt: &now,
	})

	history := &models.PostHistory{
		ContainerID: containerID,
		ThreadID:    threadID,
		Text:        params.Parent.Get(ParamText),
		MediaType:   post.MediaType,
		Attachments: post.Attachments,
		PublishedAt: now,
	}
	if _, err := s.hr.Create(ctx, history); err != nil {
		log.Printf("Error saving post history for post %d: %v", post.ID, err)
	}

	log.Printf("Successfully published post %d as thread %s", post.ID, threadID)
	return nil
}

// runProtocol executes the remote side of one attempt. For auto-published
// text the create response id is already the thread id; media posts get a
// container id first, persisted before the publish phase so an interrupted
// attempt leaves evidence of partial progress.
func (s *publisherService) runProtocol(ctx context.Context, post *models.Post, params *PublishParams, accessToken string) (threadID string, containerID *string, err error) {
	if params.AutoPublish {
		threadID, err = s.tc.CreateContainer(ctx, params.Parent, accessToken)
		return threadID, nil, err
	}

	if len(params.Children) > 0 {
		childIDs, err := s.tc.CreateChildContainers(ctx, params.Children, accessToken)
		if err != nil {
			return "", nil, err
		}
		params.Parent.Set(ParamChildren, strings.Join(childIDs, ","))
	}

	cid, err := s.tc.CreateContainer(ctx, params.Parent, accessToken)
	if err != nil {
		return "", nil, err
	}
	s.update(ctx, post.ID, &models.PostUpdate{ContainerID: &cid})

	threadID, err = s.tc.PublishContainer(ctx, cid, accessToken)
	if err != nil {
		return "", &cid, err
	}
	return threadID, &cid, nil
}

// handleFailure applies the retry policy: bump the counter and requeue while
// budget remains, otherwise mark the post failed. The scheduled time is left
// untouched so a requeued post is due again on the very next tick.
func (s *publisherService) handleFailure(ctx context.Context, post *models.Post, cause error) error {
	retryCount := post.RetryCount + 1
	message := failureMessage(cause)

	update := &models.PostUpdate{
		RetryCount:   &retryCount,
		ErrorMessage: &message,
	}

	if IsRetryable(cause) && retryCount < MaxRetryCount {
		update.Status = ptr(models.PostStatusScheduled)
		log.Printf("Will retry post %d (attempt %d/%d): %s", post.ID, retryCount, MaxRetryCount, message)
	} else {
		update.Status = ptr(models.PostStatusFailed)
		log.Printf("Post %d failed after %d attempts: %s", post.ID, retryCount, message)
	}

	s.update(ctx, post.ID, update)
	return fmt.Errorf("error publishing post %d: %w", post.ID, cause)
}

// update tolerates posts deleted underneath the publisher: zero rows
// affected is logged, not an error.
func (s *publisherService) update(ctx context.Context, postID int64, update *models.PostUpdate) {
	affected, err := s.pr.Update(ctx, postID, update)
	if err != nil {
		log.Printf("Error updating post %d: %v", postID, err)
		return
	}
	if affected == 0 {
		log.Printf("Post %d vanished during publishing, update skipped", postID)
	}
}

func ptr[T any](v T) *T {
	return &v
}
