package model

import (
	"regexp"
	"strings"
)

// hashtagPattern matches "#" followed by one or more word characters.
var hashtagPattern = regexp.MustCompile(`#\w+`)

// ExtractHashtags returns the hashtag tokens in raw, without the leading
// "#", in order of first appearance. Case is preserved and duplicates
// are kept in extraction order.
func ExtractHashtags(raw string) []string {
	matches := hashtagPattern.FindAllString(raw, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, strings.TrimPrefix(m, "#"))
	}
	return tags
}

// NormalizeCaption splits a raw caption into its displayed text and its
// hashtags. The displayed caption is the raw text with every hashtag
// removed and surrounding whitespace collapsed and trimmed.
//
// The backend applies the same normalization authoritatively; the
// client-side result is only a preview and is superseded by the
// confirmed post after a round trip.
func NormalizeCaption(raw string) (caption string, hashtags []string) {
	hashtags = ExtractHashtags(raw)
	stripped := hashtagPattern.ReplaceAllString(raw, "")
	caption = strings.Join(strings.Fields(stripped), " ")
	return caption, hashtags
}

// DenormalizeCaption rebuilds an editable raw caption from a normalized
// caption and its hashtags, for pre-filling an edit buffer.
func DenormalizeCaption(caption string, hashtags []string) string {
	if len(hashtags) == 0 {
		return caption
	}
	parts := make([]string, 0, len(hashtags)+1)
	if caption != "" {
		parts = append(parts, caption)
	}
	for _, tag := range hashtags {
		parts = append(parts, "#"+tag)
	}
	return strings.Join(parts, " ")
}
