package newsfeed

import (
	"testing"
	"time"

	"FXAdvisor/internal/domain/models"
)

func TestIsRelevant(t *testing.T) {
	now := time.Now().UTC()
	cases := []struct {
		headline string
		content  string
		want     bool
	}{
		{"Fed signals rate pause", "", true},
		{"RBI intervenes in rupee market", "", true},
		{"Quarterly earnings beat estimates", "Tech stocks rallied on strong results.", false},
		{"Morning briefing", "The dollar weakened against major peers.", true},
		{"", "", false},
	}
	for _, c := range cases {
		item := models.NewNewsItem(c.headline, c.content, "http://example.com", "test", now)
		if got := IsRelevant(item); got != c.want {
			t.Fatalf("IsRelevant(%q) = %v, want %v", c.headline, got, c.want)
		}
	}
}

func TestParseRSSTime(t *testing.T) {
	got, ok := parseRSSTime("Mon, 02 Jan 2006 15:04:05 -0700")
	if !ok {
		t.Fatalf("expected RFC1123Z to parse")
	}
	if got.Year() != 2006 {
		t.Fatalf("unexpected year %d", got.Year())
	}
	if _, ok := parseRSSTime("not a date"); ok {
		t.Fatalf("expected failure on junk input")
	}
}
