package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePostRepo struct {
	updates      []*models.PostUpdate
	affectedZero bool
}

func (f *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	return nil, nil
}

func (f *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakePostRepo) List(ctx context.Context, status string, limit int) ([]*models.Post, error) {
	return nil, nil
}

func (f *fakePostRepo) GetDue(ctx context.Context, now time.Time) ([]*models.Post, error) {
	return nil, nil
}

func (f *fakePostRepo) GetStuckPublishing(ctx context.Context, before time.Time) ([]*models.Post, error) {
	return nil, nil
}

func (f *fakePostRepo) Update(ctx context.Context, id int64, update *models.PostUpdate) (int64, error) {
	f.updates = append(f.updates, update)
	if f.affectedZero {
		return 0, nil
	}
	return 1, nil
}

func (f *fakePostRepo) Remove(ctx context.Context, id int64) error {
	return nil
}

// lastUpdate returns the final update applied, which carries the terminal
// status of the attempt.
func (f *fakePostRepo) lastUpdate(t *testing.T) *models.PostUpdate {
	t.Helper()
	require.NotEmpty(t, f.updates)
	return f.updates[len(f.updates)-1]
}

type fakeHistoryRepo struct {
	created []*models.PostHistory
	err     error
}

func (f *fakeHistoryRepo) Create(ctx context.Context, h *models.PostHistory) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.created = append(f.created, h)
	return int64(len(f.created)), nil
}

func (f *fakeHistoryRepo) GetByID(ctx context.Context, id int64) (*models.PostHistory, error) {
	return nil, nil
}

func (f *fakeHistoryRepo) List(ctx context.Context, limit int) ([]*models.PostHistory, error) {
	return f.created, nil
}

type fakeAccountService struct {
	token string
	err   error
}

func (f *fakeAccountService) Create(ctx context.Context, ac *transfer.AccountCreation) (int64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeAccountService) List(ctx context.Context) ([]*models.Account, error) {
	return nil, nil
}

func (f *fakeAccountService) SetActive(ctx context.Context, id int64, active bool) error {
	return nil
}

func (f *fakeAccountService) Remove(ctx context.Context, id int64) error {
	return nil
}

func (f *fakeAccountService) ResolveToken(ctx context.Context, post *models.Post) (string, error) {
	return f.token, f.err
}

type fakeThreadsClient struct {
	createCalls  []url.Values
	childCalls   [][]url.Values
	publishCalls []string

	createErr  error
	childErr   error
	publishErr error

	containerID string
	childIDs    []string
	threadID    string
}

func (f *fakeThreadsClient) CreateContainer(ctx context.Context, params url.Values, accessToken string) (string, error) {
	f.createCalls = append(f.createCalls, params)
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.containerID, nil
}

func (f *fakeThreadsClient) CreateChildContainers(ctx context.Context, children []url.Values, accessToken string) ([]string, error) {
	f.childCalls = append(f.childCalls, children)
	if f.childErr != nil {
		return nil, f.childErr
	}
	return f.childIDs, nil
}

func (f *fakeThreadsClient) PublishContainer(ctx context.Context, containerID, accessToken string) (string, error) {
	f.publishCalls = append(f.publishCalls, containerID)
	if f.publishErr != nil {
		return "", f.publishErr
	}
	return f.threadID, nil
}

func newPublisherFixture(as AccountService, tc ThreadsClient) (PublisherService, *fakePostRepo, *fakeHistoryRepo) {
	pr := &fakePostRepo{}
	hr := &fakeHistoryRepo{}
	return NewPublisherService(pr, hr, as, tc), pr, hr
}

func scheduledPost(mediaType string) *models.Post {
	return &models.Post{
		ID:           10,
		AccountID:    ptr(int64(1)),
		Text:         "hello",
		MediaType:    mediaType,
		Status:       models.PostStatusScheduled,
		ScheduledFor: time.Now().Add(-time.Minute),
	}
}

func TestPublishTextPostSinglePhase(t *testing.T) {
	tc := &fakeThreadsClient{containerID: "thread-1"}
	svc, pr, hr := newPublisherFixture(&fakeAccountService{token: "tok"}, tc)

	post := scheduledPost(models.MediaTypeText)
	require.NoError(t, svc.Publish(context.Background(), post))

	// One container request, no separate publish phase.
	assert.Len(t, tc.createCalls, 1)
	assert.Empty(t, tc.publishCalls)
	assert.Equal(t, "true", tc.createCalls[0].Get(ParamAutoPublishText))

	// Transitioned through publishing to published.
	require.Len(t, pr.updates, 2)
	assert.Equal(t, models.PostStatusPublishing, *pr.updates[0].Status)

	final := pr.lastUpdate(t)
	assert.Equal(t, models.PostStatusPublished, *final.Status)
	assert.Equal(t, "thread-1", *final.ThreadID)
	assert.NotNil(t, final.PublishedAt)

	require.Len(t, hr.created, 1)
	assert.Equal(t, "thread-1", hr.created[0].ThreadID)
	assert.Equal(t, "hello", hr.created[0].Text)
	assert.Nil(t, hr.created[0].ContainerID)
}

func TestPublishImagePostTwoPhase(t *testing.T) {
	tc := &fakeThreadsClient{containerID: "container-5", threadID: "thread-5"}
	svc, pr, hr := newPublisherFixture(&fakeAccountService{token: "tok"}, tc)

	post := scheduledPost(models.MediaTypeImage)
	post.Attachments = []models.Attachment{
		{Type: models.AttachmentTypeImage, URL: "https://x/a.jpg"},
	}
	require.NoError(t, svc.Publish(context.Background(), post))

	require.Len(t, tc.createCalls, 1)
	require.Equal(t, []string{"container-5"}, tc.publishCalls)

	// Container id persisted before the publish phase.
	require.Len(t, pr.updates, 3)
	assert.Equal(t, "container-5", *pr.updates[1].ContainerID)

	final := pr.lastUpdate(t)
	assert.Equal(t, models.PostStatusPublished, *final.Status)
	assert.Equal(t, "thread-5", *final.ThreadID)

	require.Len(t, hr.created, 1)
	require.NotNil(t, hr.created[0].ContainerID)
	assert.Equal(t, "container-5", *hr.created[0].ContainerID)
}

func TestPublishCarouselJoinsChildIDs(t *testing.T) {
	tc := &fakeThreadsClient{
		childIDs:    []string{"c1", "c2", "c3"},
		containerID: "parent-1",
		threadID:    "thread-7",
	}
	svc, pr, _ := newPublisherFixture(&fakeAccountService{token: "tok"}, tc)

	post := scheduledPost(models.MediaTypeCarousel)
	post.Attachments = []models.Attachment{
		{Type: models.AttachmentTypeImage, URL: "https://x/1.jpg"},
		{Type: models.AttachmentTypeImage, URL: "https://x/2.jpg"},
		{Type: models.AttachmentTypeImage, URL: "https://x/3.jpg"},
	}
	require.NoError(t, svc.Publish(context.Background(), post))

	require.Len(t, tc.childCalls, 1)
	assert.Len(t, tc.childCalls[0], 3)

	require.Len(t, tc.createCalls, 1)
	assert.Equal(t, "c1,c2,c3", tc.createCalls[0].Get(ParamChildren))

	assert.Equal(t, models.PostStatusPublished, *pr.lastUpdate(t).Status)
}

func TestPublishCarouselChildFailureAborts(t *testing.T) {
	childErr := &CarouselChildError{Index: 1, Err: &GraphAPIError{StatusCode: http.StatusBadRequest, Message: "Invalid image URL"}}
	tc := &fakeThreadsClient{childErr: childErr}
	svc, pr, hr := newPublisherFixture(&fakeAccountService{token: "tok"}, tc)

	post := scheduledPost(models.MediaTypeCarousel)
	post.Attachments = []models.Attachment{
		{Type: models.AttachmentTypeImage, URL: "https://x/1.jpg"},
		{Type: models.AttachmentTypeImage, URL: "https://x/2.jpg"},
	}
	err := svc.Publish(context.Background(), post)
	require.Error(t, err)

	// The parent container was never created, nothing was published.
	assert.Empty(t, tc.createCalls)
	assert.Empty(t, tc.publishCalls)
	assert.Empty(t, hr.created)

	final := pr.lastUpdate(t)
	assert.Equal(t, models.PostStatusScheduled, *final.Status)
	assert.Equal(t, 1, *final.RetryCount)
	assert.Equal(t, "Invalid image URL", *final.ErrorMessage)
}

func TestPublishMissingCredentialTerminal(t *testing.T) {
	tc := &fakeThreadsClient{}
	svc, pr, _ := newPublisherFixture(&fakeAccountService{err: ErrMissingCredential}, tc)

	post := scheduledPost(models.MediaTypeText)
	err := svc.Publish(context.Background(), post)
	require.ErrorIs(t, err, ErrMissingCredential)

	// No network attempt, no retry budget spent.
	assert.Empty(t, tc.createCalls)

	final := pr.lastUpdate(t)
	assert.Equal(t, models.PostStatusFailed, *final.Status)
	assert.Equal(t, "No valid account found for this post", *final.ErrorMessage)
	assert.Nil(t, final.RetryCount)
}

func TestPublishTokenLookupDBErrorRetries(t *testing.T) {
	tc := &fakeThreadsClient{}
	svc, pr, _ := newPublisherFixture(&fakeAccountService{err: errors.New("connection refused")}, tc)

	post := scheduledPost(models.MediaTypeText)
	require.Error(t, svc.Publish(context.Background(), post))

	final := pr.lastUpdate(t)
	assert.Equal(t, models.PostStatusScheduled, *final.Status)
	assert.Equal(t, 1, *final.RetryCount)
}

func TestPublishRetryableFailureRequeues(t *testing.T) {
	tc := &fakeThreadsClient{createErr: &GraphAPIError{StatusCode: http.StatusInternalServerError, Message: "Something went wrong"}}
	svc, pr, _ := newPublisherFixture(&fakeAccountService{token: "tok"}, tc)

	post := scheduledPost(models.MediaTypeText)
	err := svc.Publish(context.Background(), post)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Something went wrong"))

	final := pr.lastUpdate(t)
	assert.Equal(t, models.PostStatusScheduled, *final.Status)
	assert.Equal(t, 1, *final.RetryCount)
	assert.Equal(t, "Something went wrong", *final.ErrorMessage)

	// The scheduled time is not pushed back; the post is due next tick.
	assert.Nil(t, final.ScheduledFor)
}

func TestPublishExhaustedRetryBudgetFails(t *testing.T) {
	tc := &fakeThreadsClient{createErr: &GraphAPIError{StatusCode: http.StatusInternalServerError}}
	svc, pr, _ := newPublisherFixture(&fakeAccountService{token: "tok"}, tc)

	post := scheduledPost(models.MediaTypeText)
	post.RetryCount = MaxRetryCount - 1
	require.Error(t, svc.Publish(context.Background(), post))

	final := pr.lastUpdate(t)
	assert.Equal(t, models.PostStatusFailed, *final.Status)
	assert.Equal(t, MaxRetryCount, *final.RetryCount)
}

func TestPublishMalformedPostTerminal(t *testing.T) {
	tc := &fakeThreadsClient{}
	svc, pr, _ := newPublisherFixture(&fakeAccountService{token: "tok"}, tc)

	post := scheduledPost(models.MediaTypeCarousel)
	post.Attachments = []models.Attachment{
		{Type: models.AttachmentTypeImage, URL: "https://x/only.jpg"},
	}
	err := svc.Publish(context.Background(), post)

	var malformed *MalformedPostError
	require.ErrorAs(t, err, &malformed)
	assert.Empty(t, tc.createCalls)

	final := pr.lastUpdate(t)
	assert.Equal(t, models.PostStatusFailed, *final.Status)
	assert.Nil(t, final.RetryCount)
}

func TestPublishPostVanishedMidFlight(t *testing.T) {
	tc := &fakeThreadsClient{containerID: "thread-1"}
	pr := &fakePostRepo{affectedZero: true}
	hr := &fakeHistoryRepo{}
	svc := NewPublisherService(pr, hr, &fakeAccountService{token: "tok"}, tc)

	// Updates hitting zero rows are tolerated, not treated as failures.
	post := scheduledPost(models.MediaTypeText)
	require.NoError(t, svc.Publish(context.Background(), post))
	assert.Len(t, hr.created, 1)
}

func TestPublishHistoryWriteFailureDoesNotFailPublish(t *testing.T) {
	tc := &fakeThreadsClient{containerID: "thread-1"}
	pr := &fakePostRepo{}
	hr := &fakeHistoryRepo{err: errors.New("disk full")}
	svc := NewPublisherService(pr, hr, &fakeAccountService{token: "tok"}, tc)

	post := scheduledPost(models.MediaTypeText)
	require.NoError(t, svc.Publish(context.Background(), post))
	assert.Equal(t, models.PostStatusPublished, *pr.lastUpdate(t).Status)
}
