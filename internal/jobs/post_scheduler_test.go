package job

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPostRepo struct {
	mu      sync.Mutex
	due     []*models.Post
	dueErr  error
	stuck   []*models.Post
	updates map[int64]*models.PostUpdate
}

func newStubPostRepo() *stubPostRepo {
	return &stubPostRepo{updates: make(map[int64]*models.PostUpdate)}
}

func (r *stubPostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	return nil, nil
}

func (r *stubPostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	return 0, errors.New("not implemented")
}

func (r *stubPostRepo) List(ctx context.Context, status string, limit int) ([]*models.Post, error) {
	return nil, nil
}

func (r *stubPostRepo) GetDue(ctx context.Context, now time.Time) ([]*models.Post, error) {
	return r.due, r.dueErr
}

func (r *stubPostRepo) GetStuckPublishing(ctx context.Context, before time.Time) ([]*models.Post, error) {
	return r.stuck, nil
}

func (r *stubPostRepo) Update(ctx context.Context, id int64, update *models.PostUpdate) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates[id] = update
	return 1, nil
}

func (r *stubPostRepo) Remove(ctx context.Context, id int64) error {
	return nil
}

type stubPublisher struct {
	mu        sync.Mutex
	published []int64
	failIDs   map[int64]bool
	block     chan struct{}
}

func (p *stubPublisher) Publish(ctx context.Context, post *models.Post) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	p.published = append(p.published, post.ID)
	p.mu.Unlock()
	if p.failIDs[post.ID] {
		return errors.New("remote unavailable")
	}
	return nil
}

func duePost(id int64) *models.Post {
	return &models.Post{
		ID:           id,
		Status:       models.PostStatusScheduled,
		ScheduledFor: time.Now().Add(-time.Minute),
	}
}

func TestProcessScheduledPostsPublishesAllDue(t *testing.T) {
	repo := newStubPostRepo()
	repo.due = []*models.Post{duePost(1), duePost(2), duePost(3)}
	pub := &stubPublisher{}

	s := NewPostScheduler(repo, pub)
	s.ProcessScheduledPosts(context.Background())

	assert.Equal(t, []int64{1, 2, 3}, pub.published)
}

func TestProcessScheduledPostsFailureIsolation(t *testing.T) {
	repo := newStubPostRepo()
	repo.due = []*models.Post{duePost(1), duePost(2), duePost(3)}
	pub := &stubPublisher{failIDs: map[int64]bool{2: true}}

	s := NewPostScheduler(repo, pub)
	s.ProcessScheduledPosts(context.Background())

	// Post 2 failing does not stop posts 1 and 3.
	assert.Equal(t, []int64{1, 2, 3}, pub.published)
}

func TestProcessScheduledPostsFetchError(t *testing.T) {
	repo := newStubPostRepo()
	repo.dueErr = errors.New("db down")
	pub := &stubPublisher{}

	s := NewPostScheduler(repo, pub)
	s.ProcessScheduledPosts(context.Background())

	assert.Empty(t, pub.published)
}

func TestTickSkipsWhilePreviousTickRuns(t *testing.T) {
	repo := newStubPostRepo()
	repo.due = []*models.Post{duePost(1)}
	pub := &stubPublisher{block: make(chan struct{})}

	s := NewPostScheduler(repo, pub)

	done := make(chan struct{})
	go func() {
		s.Tick()
		close(done)
	}()

	// Wait until the first tick is inside Publish, then fire a second tick.
	require.Eventually(t, func() bool {
		return s.ticking.Load()
	}, time.Second, time.Millisecond)

	s.Tick()

	close(pub.block)
	<-done

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, []int64{1}, pub.published)
}

func TestSweepStuckPublishingRequeues(t *testing.T) {
	repo := newStubPostRepo()
	repo.stuck = []*models.Post{
		{ID: 1, Status: models.PostStatusPublishing, RetryCount: 0},
	}

	s := NewPostScheduler(repo, &stubPublisher{})
	s.sweepStuckPublishing(context.Background())

	update := repo.updates[1]
	require.NotNil(t, update)
	assert.Equal(t, models.PostStatusScheduled, *update.Status)
	assert.Equal(t, 1, *update.RetryCount)
	assert.Equal(t, "publishing was interrupted before completion", *update.ErrorMessage)
}

func TestSweepStuckPublishingExhaustsBudget(t *testing.T) {
	repo := newStubPostRepo()
	repo.stuck = []*models.Post{
		{ID: 2, Status: models.PostStatusPublishing, RetryCount: service.MaxRetryCount - 1},
	}

	s := NewPostScheduler(repo, &stubPublisher{})
	s.sweepStuckPublishing(context.Background())

	update := repo.updates[2]
	require.NotNil(t, update)
	assert.Equal(t, models.PostStatusFailed, *update.Status)
	assert.Equal(t, service.MaxRetryCount, *update.RetryCount)
}

func TestStartStopIdempotent(t *testing.T) {
	s := NewPostScheduler(newStubPostRepo(), &stubPublisher{})

	s.Start()
	s.Start()
	assert.True(t, s.running.Load())

	s.Stop()
	s.Stop()
	assert.False(t, s.running.Load())
}
