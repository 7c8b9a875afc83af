package transfer

// PostCreation is the composer input for creating or updating a post. Media
// type is derived from the attachments: none is TEXT, one is IMAGE or VIDEO,
// two or more is CAROUSEL.
type PostCreation struct {
	Text           string            `json:"text"`
	Attachments    []AttachmentInput `json:"attachments,omitempty"`
	AccountID      int64             `json:"account_id,omitempty"`
	SaveType       string            `json:"save_type,omitempty"` // draft or schedule
	ScheduledFor   string            `json:"scheduled_for,omitempty"`
	ReplyControl   string            `json:"reply_control,omitempty"`
	ReplyToID      string            `json:"reply_to_id,omitempty"`
	LinkAttachment string            `json:"link_attachment,omitempty"`
	TopicTag       string            `json:"topic_tag,omitempty"`
	QuotePostID    string            `json:"quote_post_id,omitempty"`
	IsSpoilerMedia bool              `json:"is_spoiler_media,omitempty"`
	PollOptionA    string            `json:"poll_option_a,omitempty"`
	PollOptionB    string            `json:"poll_option_b,omitempty"`
	PollOptionC    string            `json:"poll_option_c,omitempty"`
	PollOptionD    string            `json:"poll_option_d,omitempty"`
}

type AttachmentInput struct {
	Type    string `json:"type"`
	URL     string `json:"url"`
	AltText string `json:"alt_text,omitempty"`
}

type AccountCreation struct {
	ThreadsUserID  string `json:"threads_user_id"`
	Username       string `json:"username"`
	AccessToken    string `json:"access_token"`
	TokenExpiresAt int64  `json:"token_expires_at,omitempty"`
}

type ImportRequest struct {
	Posts []PostCreation `json:"posts"`
}

type ImportResult struct {
	Reference string   `json:"reference"`
	Total     int      `json:"total"`
	Created   int      `json:"created"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}
