package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/umputun/userheaders/pkg/config"
	"github.com/umputun/userheaders/pkg/delay"
	"github.com/umputun/userheaders/pkg/headers"
)

// fetchFeed demonstrates the intended integration: human-like pause first,
// then a feed request carrying the resolved browser headers.
func fetchFeed(ctx context.Context, cfg *config.Config, profile *headers.Profile, feedURL string) error {
	pause, err := delay.Next(cfg.DelayConfig())
	if err != nil {
		return fmt.Errorf("delay config: %w", err)
	}
	log.Printf("[INFO] waiting %.1fs before request", pause.Seconds())
	select {
	case <-time.After(pause):
	case <-ctx.Done():
		return ctx.Err()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range profile.Map() {
		req.Header.Set(k, v)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d for feed %s", resp.StatusCode, feedURL)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	fmt.Printf("%s (%d items)\n", feed.Title, len(feed.Items))
	for _, item := range feed.Items {
		fmt.Printf("  - %s\n    %s\n", item.Title, item.Link)
	}
	return nil
}
