package scraper

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mydarah/bot/logger"
)

// Dates as catalogue pages print them: 2024-06-01, 01/06/2024 or 1 Jun 2024.
var publishedDateRegex = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})|(\d{1,2}/\d{1,2}/\d{4})|(\d{1,2} [A-Z][a-z]{2,8} \d{4})`)

var publishedDateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006", "2 Jan 2006", "2 January 2006"}

// parsePublishedDate extracts the first recognizable date from a block of text.
func parsePublishedDate(text string) (time.Time, error) {
	match := publishedDateRegex.FindString(text)
	if match == "" {
		return time.Time{}, fmt.Errorf("no date found in %q", text)
	}
	for _, layout := range publishedDateLayouts {
		if t, err := time.Parse(layout, match); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", match)
}

// ScrapePublishedDate loads the dataset catalogue page and reads the "last updated"
// date from the first element matching selector.
func ScrapePublishedDate(ctx context.Context, client *http.Client, pageURL, selector string) (time.Time, error) {
	logger.Infof(ctx, "Scraper: checking published date on %s (selector: '%s')", pageURL, selector)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to build request for %s: %w", pageURL, err)
	}
	res, err := client.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get URL %s: %w", pageURL, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("failed to get URL %s: status code %d", pageURL, res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse HTML from %s: %w", pageURL, err)
	}

	var published time.Time
	var parseErr error
	found := false
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			if v, ok := s.Attr("datetime"); ok {
				text = v
			}
		}
		published, parseErr = parsePublishedDate(text)
		found = parseErr == nil
		return !found
	})

	if !found {
		if parseErr == nil {
			parseErr = fmt.Errorf("selector '%s' matched nothing", selector)
		}
		return time.Time{}, fmt.Errorf("published date not found on %s: %w", pageURL, parseErr)
	}

	logger.Infof(ctx, "Scraper: %s reports data published %s", pageURL, published.Format("2006-01-02"))
	return published, nil
}
