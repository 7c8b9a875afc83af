package models

import "time"

type Post struct {
	ID             int64           `db:"id" json:"id"`
	AccountID      *int64          `db:"account_id" json:"account_id,omitempty"`
	Text           string          `db:"text" json:"text"`
	MediaType      string          `db:"media_type" json:"media_type"`
	Attachments    []Attachment    `db:"attachments" json:"attachments,omitempty"`
	Poll           *PollAttachment `db:"poll_attachment" json:"poll_attachment,omitempty"`
	TextEntities   []TextEntity    `db:"text_entities" json:"text_entities,omitempty"`
	ReplyControl   string          `db:"reply_control" json:"reply_control,omitempty"`
	ReplyToID      string          `db:"reply_to_id" json:"reply_to_id,omitempty"`
	LinkAttachment string          `db:"link_attachment" json:"link_attachment,omitempty"`
	TopicTag       string          `db:"topic_tag" json:"topic_tag,omitempty"`
	QuotePostID    string          `db:"quote_post_id" json:"quote_post_id,omitempty"`
	IsSpoilerMedia bool            `db:"is_spoiler_media" json:"is_spoiler_media"`
	ScheduledFor   time.Time       `db:"scheduled_for" json:"scheduled_for"`
	Status         string          `db:"status" json:"status"` // draft, scheduled, publishing, published, failed
	RetryCount     int             `db:"retry_count" json:"retry_count"`
	ErrorMessage   *string         `db:"error_message" json:"error_message,omitempty"`
	ContainerID    *string         `db:"container_id" json:"container_id,omitempty"`
	ThreadID       *string         `db:"thread_id" json:"thread_id,omitempty"`
	PublishedAt    *time.Time      `db:"published_at" json:"published_at,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// Attachment is one ordered media entry of a post. More than one entry
// makes the post a carousel.
type Attachment struct {
	Type    string `json:"type"` // Image or Video
	URL     string `json:"url"`
	AltText string `json:"alt_text,omitempty"`
}

type PollAttachment struct {
	OptionA string `json:"option_a"`
	OptionB string `json:"option_b"`
	OptionC string `json:"option_c,omitempty"`
	OptionD string `json:"option_d,omitempty"`
}

// TextEntity is a structured annotation over the visible text, e.g. a
// spoiler span extracted from the raw composer input.
type TextEntity struct {
	EntityType string `json:"entity_type"`
	Offset     int    `json:"offset"`
	Text       string `json:"text"`
}

// PostUpdate carries a partial update; nil fields are left untouched.
// The repository always stamps updated_at alongside whatever is set here.
type PostUpdate struct {
	AccountID      *int64
	Text           *string
	MediaType      *string
	Attachments    *[]Attachment
	Poll           *PollAttachment
	TextEntities   *[]TextEntity
	ReplyControl   *string
	ReplyToID      *string
	LinkAttachment *string
	TopicTag       *string
	QuotePostID    *string
	IsSpoilerMedia *bool
	ScheduledFor   *time.Time
	Status         *string
	RetryCount     *int
	ErrorMessage   *string
	ContainerID    *string
	ThreadID       *string
	PublishedAt    *time.Time
}

const (
	PostStatusDraft      = "draft"
	PostStatusScheduled  = "scheduled"
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
)

const (
	MediaTypeText     = "TEXT"
	MediaTypeImage    = "IMAGE"
	MediaTypeVideo    = "VIDEO"
	MediaTypeCarousel = "CAROUSEL"
)

const (
	AttachmentTypeImage = "Image"
	AttachmentTypeVideo = "Video"
)
