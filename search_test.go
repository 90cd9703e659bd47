package loggly

import (
	"errors"
	"testing"
)

func TestSearchValues(t *testing.T) {

	tests := []struct {
		name   string
		input  SearchQuery
		expect string
	}{
		{"empty query defaults to *", SearchQuery{}, "q=%2A"},
		{"query only", SearchQuery{Query: "tag:backend"}, "q=tag%3Abackend"},
		{
			"full query",
			SearchQuery{Query: "error", From: "-24h", Until: "now", Order: "desc", Size: 50},
			"from=-24h&order=desc&q=error&size=50&until=now",
		},
	}
	for i := 0; i < len(tests); i++ {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			if got := searchValues(tt.input).Encode(); got != tt.expect {
				t.Errorf("failed: %s, expected: %s, got: %s", tt.name, tt.expect, got)
			}
		})
	}
}

func TestSearch_requiresAuth(t *testing.T) {

	c, err := NewCustom(testOptions(), newMemoryTransport())
	if err != nil {
		t.Fatalf("failed to get NewCustom client: %v", err)
	}

	if _, err := c.Search(SearchQuery{Query: "*"}); !errors.Is(err, ErrMissingAuth) {
		t.Errorf("expected ErrMissingAuth, got: %v", err)
	}
	if _, err := c.Customer(); !errors.Is(err, ErrMissingAuth) {
		t.Errorf("expected ErrMissingAuth, got: %v", err)
	}
}
