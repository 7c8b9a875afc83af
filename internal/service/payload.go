package service

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/maheshrc27/threadflow/internal/models"
)

// Threads Graph API parameter names.
const (
	ParamText            = "text"
	ParamMediaType       = "media_type"
	ParamAutoPublishText = "auto_publish_text"
	ParamReplyControl    = "reply_control"
	ParamReplyToID       = "reply_to_id"
	ParamLinkAttachment  = "link_attachment"
	ParamTopicTag        = "topic_tag"
	ParamQuotePostID     = "quote_post_id"
	ParamIsSpoilerMedia  = "is_spoiler_media"
	ParamPollAttachment  = "poll_attachment"
	ParamTextEntities    = "text_entities"
	ParamImageURL        = "image_url"
	ParamVideoURL        = "video_url"
	ParamAltText         = "alt_text"
	ParamIsCarouselItem  = "is_carousel_item"
	ParamChildren        = "children"
	ParamCreationID      = "creation_id"
	ParamAccessToken     = "access_token"
)

// PublishParams is a built request payload, ready for the protocol client.
// For carousels, Children carries one parameter set per attachment; their
// container ids become the parent's children list.
type PublishParams struct {
	Parent      url.Values
	Children    []url.Values
	AutoPublish bool
}

// BuildPublishParams turns a stored post into Graph API parameters. Absent
// optional fields are omitted entirely; the API treats an explicit empty
// value differently from a missing key.
func BuildPublishParams(post *models.Post) (*PublishParams, error) {
	text, entities := ExtractSpoilers(post.Text)
	if entities == nil {
		entities = post.TextEntities
	}

	mediaType := post.MediaType
	if mediaType == "" {
		mediaType = models.MediaTypeText
	}

	parent := url.Values{}
	parent.Set(ParamText, text)
	parent.Set(ParamMediaType, mediaType)

	if post.ReplyControl != "" {
		parent.Set(ParamReplyControl, post.ReplyControl)
	}
	if post.ReplyToID != "" {
		parent.Set(ParamReplyToID, post.ReplyToID)
	}
	if post.LinkAttachment != "" {
		parent.Set(ParamLinkAttachment, post.LinkAttachment)
	}
	if post.TopicTag != "" {
		parent.Set(ParamTopicTag, post.TopicTag)
	}
	if post.QuotePostID != "" {
		parent.Set(ParamQuotePostID, post.QuotePostID)
	}
	if post.IsSpoilerMedia {
		parent.Set(ParamIsSpoilerMedia, "true")
	}
	if post.Poll != nil {
		poll, err := json.Marshal(post.Poll)
		if err != nil {
			return nil, fmt.Errorf("error encoding poll attachment: %w", err)
		}
		parent.Set(ParamPollAttachment, string(poll))
	}
	if len(entities) > 0 {
		encoded, err := json.Marshal(entities)
		if err != nil {
			return nil, fmt.Errorf("error encoding text entities: %w", err)
		}
		parent.Set(ParamTextEntities, string(encoded))
	}

	params := &PublishParams{Parent: parent}

	switch mediaType {
	case models.MediaTypeText:
		params.AutoPublish = true
		parent.Set(ParamAutoPublishText, "true")

	case models.MediaTypeImage, models.MediaTypeVideo:
		if len(post.Attachments) == 0 {
			return nil, &MalformedPostError{PostID: post.ID, Reason: mediaType + " post has no attachment"}
		}
		if err := addAttachmentFields(parent, post.Attachments[0]); err != nil {
			return nil, &MalformedPostError{PostID: post.ID, Reason: err.Error()}
		}

	case models.MediaTypeCarousel:
		if len(post.Attachments) < 2 {
			return nil, &MalformedPostError{PostID: post.ID, Reason: "carousel post needs at least 2 attachments"}
		}
		for _, attachment := range post.Attachments {
			child := url.Values{}
			child.Set(ParamIsCarouselItem, "true")
			if err := addAttachmentFields(child, attachment); err != nil {
				return nil, &MalformedPostError{PostID: post.ID, Reason: err.Error()}
			}
			params.Children = append(params.Children, child)
		}

	default:
		return nil, &MalformedPostError{PostID: post.ID, Reason: "unknown media type " + mediaType}
	}

	return params, nil
}

func addAttachmentFields(target url.Values, attachment models.Attachment) error {
	switch attachment.Type {
	case models.AttachmentTypeImage:
		target.Set(ParamMediaType, models.MediaTypeImage)
		target.Set(ParamImageURL, attachment.URL)
	case models.AttachmentTypeVideo:
		target.Set(ParamMediaType, models.MediaTypeVideo)
		target.Set(ParamVideoURL, attachment.URL)
	default:
		return fmt.Errorf("unknown attachment type %q", attachment.Type)
	}
	if attachment.AltText != "" {
		target.Set(ParamAltText, attachment.AltText)
	}
	return nil
}
