// Package search filters the local post collection by hashtag. The
// query syntax matches what users type into the search bar: any "#tag"
// tokens are extracted, everything else is ignored.
package search

import (
	"strings"

	"xbarclient/internal/model"
)

// ParseQuery extracts the hashtag tokens from a free-form query.
func ParseQuery(query string) []string {
	return model.ExtractHashtags(query)
}

// ByHashtags returns the posts tagged with at least one of the given
// tags, preserving feed order. Matching is case-insensitive. An empty
// tag list matches nothing.
func ByHashtags(posts []model.Post, tags []string) []model.Post {
	if len(tags) == 0 {
		return nil
	}

	var out []model.Post
	for _, p := range posts {
		if hasAnyTag(&p, tags) {
			out = append(out, p)
		}
	}
	return out
}

func hasAnyTag(p *model.Post, tags []string) bool {
	for _, want := range tags {
		for _, have := range p.Hashtags {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}
