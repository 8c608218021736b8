package search

import (
	"reflect"
	"testing"

	"xbarclient/internal/model"
)

func TestParseQuery(t *testing.T) {
	got := ParseQuery("show me #travel and #Nature pics")
	want := []string{"travel", "Nature"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseQuery = %v, want %v", got, want)
	}

	if got := ParseQuery("no tags here"); len(got) != 0 {
		t.Errorf("ParseQuery = %v, want none", got)
	}
}

func TestByHashtags(t *testing.T) {
	posts := []model.Post{
		{ID: "p1", Hashtags: []string{"travel", "sunset"}},
		{ID: "p2", Hashtags: []string{"food"}},
		{ID: "p3", Hashtags: []string{"Travel"}},
	}

	got := ByHashtags(posts, []string{"travel"})
	if len(got) != 2 || got[0].ID != "p1" || got[1].ID != "p3" {
		t.Errorf("matches = %+v, want p1 and p3 in feed order", got)
	}

	if got := ByHashtags(posts, nil); got != nil {
		t.Errorf("empty tag list matched %+v", got)
	}

	if got := ByHashtags(posts, []string{"beach"}); got != nil {
		t.Errorf("unknown tag matched %+v", got)
	}
}
