package service

import (
	"strings"
	"unicode/utf8"

	"github.com/maheshrc27/threadflow/internal/models"
)

// SpoilerMarker delimits hidden spans in raw composer text:
// "before **spoiler**hidden**spoiler** after".
const SpoilerMarker = "**spoiler**"

// ExtractSpoilers pulls marker-delimited spans out of the text and returns
// the visible text with the markers and hidden spans removed, plus one
// entity per span. Text without markers is returned unchanged with no
// entities, so running extraction on already-extracted text is a no-op.
// An unpaired trailing marker is left in place.
func ExtractSpoilers(text string) (string, []models.TextEntity) {
	if !strings.Contains(text, SpoilerMarker) {
		return text, nil
	}

	var visible strings.Builder
	var entities []models.TextEntity

	rest := text
	for {
		start := strings.Index(rest, SpoilerMarker)
		if start < 0 {
			break
		}
		end := strings.Index(rest[start+len(SpoilerMarker):], SpoilerMarker)
		if end < 0 {
			break
		}

		hidden := rest[start+len(SpoilerMarker) : start+len(SpoilerMarker)+end]
		visible.WriteString(rest[:start])
		entities = append(entities, models.TextEntity{
			EntityType: "spoiler",
			Offset:     utf8.RuneCountInString(visible.String()),
			Text:       hidden,
		})
		rest = rest[start+2*len(SpoilerMarker)+end:]
	}
	visible.WriteString(rest)

	return visible.String(), entities
}
