package service

import (
	"errors"
	"fmt"
)

// ErrMissingCredential means a post has no usable account token. No network
// attempt was made, so retrying cannot help; the post goes straight to failed.
var ErrMissingCredential = errors.New("No valid account found for this post")

// GraphAPIError is a non-2xx response from the Threads Graph API. The
// structured message from the response body, when present, is preferred
// over transport-level detail when recording the failure on the post.
type GraphAPIError struct {
	StatusCode int
	Message    string
}

func (e *GraphAPIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("unexpected status code from Threads: %d", e.StatusCode)
}

// MalformedPostError indicates stored post data the payload builder cannot
// turn into a valid request, e.g. a carousel with fewer than two attachments.
// This is a defect, not a runtime condition; retrying unchanging data is
// pointless, so it is terminal.
type MalformedPostError struct {
	PostID int64
	Reason string
}

func (e *MalformedPostError) Error() string {
	return fmt.Sprintf("malformed post %d: %s", e.PostID, e.Reason)
}

// CarouselChildError wraps the failure of a single child container creation.
// The whole attempt is aborted; partial carousels are never published.
type CarouselChildError struct {
	Index int
	Err   error
}

func (e *CarouselChildError) Error() string {
	return fmt.Sprintf("carousel child %d: %v", e.Index, e.Err)
}

func (e *CarouselChildError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether a publish failure should be re-queued.
// Missing credentials and malformed stored data are terminal; everything
// else (transport errors, timeouts, remote 5xx/4xx) is retried up to the
// budget.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrMissingCredential) {
		return false
	}
	var malformed *MalformedPostError
	return !errors.As(err, &malformed)
}

// failureMessage extracts the human-readable error context persisted on the
// post: the structured remote message when the API returned one, the raw
// error text otherwise.
func failureMessage(err error) string {
	var apiErr *GraphAPIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
