package ingest

import (
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/config"
	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/database"
)

const maxPerFeed = 20

// FeedResult holds the results of a feed ingestion run.
type FeedResult struct {
	TotalFound int
	New        int
	Duplicates int
	Fetched    int
}

// FeedIngester pulls documents from configured RSS/Atom feeds.
type FeedIngester struct {
	db     *database.DB
	feeds  []config.Feed
	client *http.Client
}

// NewFeedIngester creates a new feed ingester.
func NewFeedIngester(db *database.DB, feeds []config.Feed) *FeedIngester {
	return &FeedIngester{
		db:    db,
		feeds: feeds,
		client: &http.Client{
			Timeout: 15 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// IngestAll parses every configured feed and stores new entries as
// documents. Entries without body text are fetched over HTTP and run
// through readability extraction.
func (fi *FeedIngester) IngestAll() *FeedResult {
	r := &FeedResult{}
	parser := gofeed.NewParser()

	for _, fc := range fi.feeds {
		name := fc.Name
		if name == "" {
			name = sourceNameFromURL(fc.URL)
		}

		feed, err := parser.ParseURL(fc.URL)
		if err != nil {
			log.Printf("Failed to parse feed %s: %v", fc.URL, err)
			continue
		}

		count := 0
		for _, item := range feed.Items {
			if count >= maxPerFeed {
				break
			}
			count++
			r.TotalFound++

			itemURL := item.Link
			if itemURL == "" {
				itemURL = item.GUID
			}
			title := strings.TrimSpace(item.Title)
			if itemURL == "" || title == "" {
				continue
			}

			content := itemContent(item)
			if content == "" {
				fetched := fi.fetchFullText(itemURL)
				if fetched != "" {
					content = fetched
					r.Fetched++
				}
			}

			id, err := fi.db.InsertDocument(title, strPtr(content), &itemURL, &name, nil)
			if err != nil {
				log.Printf("Error inserting document %s: %v", itemURL, err)
				continue
			}
			if id == 0 {
				r.Duplicates++
				continue
			}
			r.New++
		}
		log.Printf("Ingested %d entries from %s", count, name)
	}

	log.Printf("Feed ingestion complete: %d new, %d duplicates of %d found", r.New, r.Duplicates, r.TotalFound)
	return r
}

// fetchFullText downloads a page and extracts readable text. Returns ""
// when the page yields nothing usable; feed entries keep their summary.
func (fi *FeedIngester) fetchFullText(pageURL string) string {
	req, err := http.NewRequest("GET", pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "pcassist/1.0 (document assistant)")

	resp, err := fi.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return ""
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}

	parsedURL, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err != nil {
		return ""
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) > 100 {
		return text
	}
	return ""
}

func itemContent(item *gofeed.Item) string {
	if item.Content != "" {
		return stripHTML(item.Content)
	}
	if item.Description != "" {
		return stripHTML(item.Description)
	}
	return ""
}

func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

func sourceNameFromURL(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())
	for _, prefix := range []string{"www.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}
	if host == "" {
		return feedURL
	}
	return strings.ToUpper(host[:1]) + host[1:]
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
