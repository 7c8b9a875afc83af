package job

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/repository"
	"github.com/maheshrc27/threadflow/internal/service"
	"github.com/robfig/cron"
)

// PostScheduler polls for due posts once a minute and drives each through
// the publisher, sequentially within a tick. One scheduler is constructed at
// process start; there is no ambient singleton.
type PostScheduler struct {
	cron    *cron.Cron
	pr      repository.PostRepository
	ps      service.PublisherService
	running atomic.Bool
	ticking atomic.Bool
}

// stuckPublishingAge is how long a post may sit in the publishing state
// before the sweep assumes the publish attempt died mid-flight.
const stuckPublishingAge = 15 * time.Minute

func NewPostScheduler(pr repository.PostRepository, ps service.PublisherService) *PostScheduler {
	return &PostScheduler{
		cron: cron.New(),
		pr:   pr,
		ps:   ps,
	}
}

func (s *PostScheduler) Start() {
	if !s.running.CompareAndSwap(false, true) {
		log.Println("Scheduler is already running")
		return
	}

	s.cron.AddFunc("@every 0h1m0s", s.Tick)
	s.cron.Start()
	log.Println("Scheduler started - checking every minute")
}

func (s *PostScheduler) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	s.cron.Stop()
	log.Println("Scheduler stopped")
}

// Tick runs one scheduler pass. A tick still in flight when the next fires
// wins: overlapping passes over the same posts are skipped entirely.
func (s *PostScheduler) Tick() {
	if !s.ticking.CompareAndSwap(false, true) {
		log.Println("Previous scheduler tick still running, skipping")
		return
	}
	defer s.ticking.Store(false)

	ctx := context.Background()
	s.sweepStuckPublishing(ctx)
	s.ProcessScheduledPosts(ctx)
}

// ProcessScheduledPosts publishes every due post in deadline order. A single
// post's failure never aborts the rest of the batch.
func (s *PostScheduler) ProcessScheduledPosts(ctx context.Context) {
	duePosts, err := s.pr.GetDue(ctx, time.Now())
	if err != nil {
		log.Printf("Error fetching due posts: %v", err)
		return
	}
	if len(duePosts) == 0 {
		return
	}

	log.Printf("Found %d posts due for publishing", len(duePosts))

	for _, post := range duePosts {
		if err := s.ps.Publish(ctx, post); err != nil {
			log.Printf("Error publishing post %d: %v", post.ID, err)
		}
	}
}

// sweepStuckPublishing requeues posts abandoned in the publishing state by a
// crash between container creation and publish. The sweep counts as one
// failed attempt so a crash-looping post still exhausts its retry budget.
func (s *PostScheduler) sweepStuckPublishing(ctx context.Context) {
	stuck, err := s.pr.GetStuckPublishing(ctx, time.Now().Add(-stuckPublishingAge))
	if err != nil {
		log.Printf("Error fetching stuck posts: %v", err)
		return
	}

	for _, post := range stuck {
		retryCount := post.RetryCount + 1
		message := "publishing was interrupted before completion"

		status := models.PostStatusScheduled
		if retryCount >= service.MaxRetryCount {
			status = models.PostStatusFailed
		}
		log.Printf("Post %d was stuck in publishing, moving to %s (attempt %d/%d)",
			post.ID, status, retryCount, service.MaxRetryCount)

		_, err := s.pr.Update(ctx, post.ID, &models.PostUpdate{
			Status:       &status,
			RetryCount:   &retryCount,
			ErrorMessage: &message,
		})
		if err != nil {
			log.Printf("Error requeueing stuck post %d: %v", post.ID, err)
		}
	}
}
