package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParsePublishedDate(t *testing.T) {
	cases := map[string]time.Time{
		"Last updated: 2024-06-01 09:00":  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		"Dikemaskini 03/07/2024":          time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC),
		"Data as of 5 Jun 2024, 23:59":    time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC),
		"Next update 12 September 2024":   time.Date(2024, 9, 12, 0, 0, 0, 0, time.UTC),
	}
	for text, want := range cases {
		got, err := parsePublishedDate(text)
		if err != nil {
			t.Fatalf("%q: %v", text, err)
		}
		if !got.Equal(want) {
			t.Fatalf("%q: expected %s, got %s", text, want, got)
		}
	}
	if _, err := parsePublishedDate("no dates here"); err == nil {
		t.Fatalf("expected an error for text without a date")
	}
}

func TestScrapePublishedDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
<div class="meta"><span class="updated">Last updated: 2024-06-01</span></div>
<div class="meta"><time class="next" datetime="2024-06-02"></time></div>
</body></html>`))
	}))
	defer srv.Close()

	client := NewHTTPClient(5 * time.Second)
	got, err := ScrapePublishedDate(context.Background(), client, srv.URL, "span.updated")
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if !got.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %s", got)
	}

	got, err = ScrapePublishedDate(context.Background(), client, srv.URL, "time.next")
	if err != nil {
		t.Fatalf("scrape datetime attr: %v", err)
	}
	if !got.Equal(time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %s", got)
	}

	if _, err := ScrapePublishedDate(context.Background(), client, srv.URL, "div.missing"); err == nil {
		t.Fatalf("expected an error for a selector that matches nothing")
	}
}
