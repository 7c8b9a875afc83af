package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/threadflow/internal/models"
)

// HandlePublishPostTask publishes a single post on demand. The post is
// re-fetched so a task racing the scheduler loop (or a deleted post) is a
// no-op instead of a double publish.
func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	post, err := q.pr.GetByID(ctx, payload.PostID)
	if err != nil {
		return fmt.Errorf("error fetching post %d: %w", payload.PostID, err)
	}
	if post == nil {
		log.Printf("Post %d no longer exists, dropping publish task", payload.PostID)
		return nil
	}

	switch post.Status {
	case models.PostStatusPublished, models.PostStatusPublishing:
		log.Printf("Post %d is already %s, dropping publish task", post.ID, post.Status)
		return nil
	}

	if err := q.ps.Publish(ctx, post); err != nil {
		// The publisher has already applied the retry policy; failing the
		// task here would make asynq retry on top of it.
		log.Printf("Error publishing post %d from task: %v", post.ID, err)
	}
	return nil
}
