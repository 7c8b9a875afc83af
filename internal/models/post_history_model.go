package models

import "time"

// PostHistory is an append-only record of a successful publication.
// Exactly one row is written per post that goes live; rows are never
// updated or deleted.
type PostHistory struct {
	ID          int64        `db:"id" json:"id"`
	ContainerID *string      `db:"container_id" json:"container_id,omitempty"`
	ThreadID    string       `db:"thread_id" json:"thread_id"`
	Text        string       `db:"text" json:"text"`
	MediaType   string       `db:"media_type" json:"media_type"`
	Attachments []Attachment `db:"attachments" json:"attachments,omitempty"`
	PublishedAt time.Time    `db:"published_at" json:"published_at"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}
