package queue

import (
	"github.com/maheshrc27/threadflow/internal/repository"
	"github.com/maheshrc27/threadflow/internal/service"
)

type Queue struct {
	pr repository.PostRepository
	ps service.PublisherService
}

func NewQueue(pr repository.PostRepository, ps service.PublisherService) *Queue {
	return &Queue{
		pr: pr,
		ps: ps,
	}
}

const TaskTypePublishPost = "publish:post"

type PublishPostPayload struct {
	PostID int64 `json:"post_id"`
}
