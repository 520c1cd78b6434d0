// Package registry reads the public model catalog. The registry publishes no
// JSON API, so the library and tags pages are scraped; selectors are kept
// loose enough to survive cosmetic page changes.
package registry

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"modeldash/internal/api"
)

// Entry is one installable model in the catalog.
type Entry struct {
	Name        string
	Description string
	Tags        []string
}

type Client struct {
	base string
	hc   *http.Client
}

func New(base string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: timeout},
	}
}

// Library fetches and parses the catalog index page. Entries come back
// sorted by name and deduplicated.
func (c *Client) Library(ctx context.Context) ([]Entry, error) {
	doc, err := c.fetch(ctx, c.base+"/library")
	if err != nil {
		return nil, err
	}

	seen := map[string]int{}
	var entries []Entry
	doc.Find("a[href^='/library/']").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		parts := strings.Split(strings.Trim(href, "/"), "/")
		// Want direct model links: /library/<name>, not tag or nested pages.
		if len(parts) != 2 || parts[1] == "" || strings.Contains(parts[1], ":") {
			return
		}
		name := parts[1]
		desc := strings.TrimSpace(s.Find("p").First().Text())
		if i, ok := seen[name]; ok {
			if entries[i].Description == "" && desc != "" {
				entries[i].Description = desc
			}
			return
		}
		seen[name] = len(entries)
		entries = append(entries, Entry{Name: name, Description: desc})
	})

	if len(entries) == 0 {
		return nil, fmt.Errorf("no models found on registry page %s/library", c.base)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Tags fetches the tag list for one catalog model.
func (c *Client) Tags(ctx context.Context, name string) ([]string, error) {
	doc, err := c.fetch(ctx, c.base+"/library/"+name+"/tags")
	if err != nil {
		return nil, err
	}

	prefix := "/library/" + name + ":"
	seen := map[string]bool{}
	var tags []string
	doc.Find("a[href^='/library/']").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.HasPrefix(href, prefix) {
			return
		}
		tag := strings.TrimPrefix(href, prefix)
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	})

	if len(tags) == 0 {
		return nil, fmt.Errorf("no tags found for %q", name)
	}
	sort.Strings(tags)
	return tags, nil
}

func (c *Client) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrConnection, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &api.APIError{Status: res.StatusCode, Message: "registry fetch failed"}
	}
	return goquery.NewDocumentFromReader(res.Body)
}

// Search ranks entries against term by fuzzy match on the name, best match
// first. An empty term returns entries unchanged.
func Search(entries []Entry, term string) []Entry {
	if strings.TrimSpace(term) == "" {
		return entries
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	ranks := fuzzy.RankFindNormalizedFold(term, names)
	sort.Stable(ranks)
	out := make([]Entry, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, entries[r.OriginalIndex])
	}
	return out
}
