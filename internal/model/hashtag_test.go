package model

import (
	"reflect"
	"testing"
)

func TestExtractHashtags(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "no hashtags",
			raw:  "just a plain caption",
			want: []string{},
		},
		{
			name: "two hashtags at the end",
			raw:  "Sunset today! #travel #nature",
			want: []string{"travel", "nature"},
		},
		{
			name: "hashtag in the middle",
			raw:  "good #morning everyone",
			want: []string{"morning"},
		},
		{
			name: "case preserved",
			raw:  "#GoLang #golang",
			want: []string{"GoLang", "golang"},
		},
		{
			name: "duplicates kept in order",
			raw:  "#beach walk #sun #beach",
			want: []string{"beach", "sun", "beach"},
		},
		{
			name: "bare hash is not a tag",
			raw:  "score was 3 # 2",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractHashtags(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractHashtags(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeCaption(t *testing.T) {
	caption, tags := NormalizeCaption("Sunset today! #travel #nature")

	if caption != "Sunset today!" {
		t.Errorf("caption = %q, want %q", caption, "Sunset today!")
	}
	if !reflect.DeepEqual(tags, []string{"travel", "nature"}) {
		t.Errorf("hashtags = %v, want [travel nature]", tags)
	}
}

func TestNormalizeCaption_CollapsesWhitespace(t *testing.T) {
	caption, _ := NormalizeCaption("good #morning   everyone  #mood ")

	if caption != "good everyone" {
		t.Errorf("caption = %q, want %q", caption, "good everyone")
	}
}

// Extraction is idempotent: a normalized caption contains no hashtags,
// so extracting again yields nothing.
func TestNormalizeCaption_Idempotent(t *testing.T) {
	raw := "Sunset today! #travel #nature #travel"

	caption, _ := NormalizeCaption(raw)
	again := ExtractHashtags(caption)

	if len(again) != 0 {
		t.Errorf("re-extracting from normalized caption %q yielded %v, want none", caption, again)
	}

	// Normalizing a normalized caption changes nothing.
	twice, tags := NormalizeCaption(caption)
	if twice != caption {
		t.Errorf("normalizing twice changed caption: %q -> %q", caption, twice)
	}
	if len(tags) != 0 {
		t.Errorf("normalizing twice yielded tags %v, want none", tags)
	}
}

func TestDenormalizeCaption_RoundTrip(t *testing.T) {
	raw := DenormalizeCaption("Sunset today!", []string{"travel", "nature"})

	caption, tags := NormalizeCaption(raw)
	if caption != "Sunset today!" {
		t.Errorf("caption = %q after round trip", caption)
	}
	if !reflect.DeepEqual(tags, []string{"travel", "nature"}) {
		t.Errorf("hashtags = %v after round trip", tags)
	}
}
