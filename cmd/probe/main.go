package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/redboard/mentions-tracker/internal/classify"
	"github.com/redboard/mentions-tracker/internal/config"
	"github.com/redboard/mentions-tracker/internal/twitter"
)

func main() {
	fmt.Println("🔍 RedBoard Mentions Tracker - API Probe")
	fmt.Println("========================================")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client := twitter.NewClient(cfg.TwitterBearerToken)
	if !client.Enabled() {
		log.Fatal("TWITTER_BEARER_TOKEN is not set - nothing to probe")
	}

	rules := classify.DefaultRules()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	query := cfg.Queries[0]
	fmt.Printf("\n📡 Running search: %s\n", query)
	fmt.Println(strings.Repeat("-", 40))

	page, err := client.SearchRecent(ctx, query, "")
	if err != nil {
		log.Fatalf("❌ Search failed: %v", err)
	}

	handles := make(map[string]string, len(page.Authors))
	for _, a := range page.Authors {
		handles[a.ID] = a.Username
	}

	included := 0
	for _, t := range page.Tweets {
		verdict := "skip"
		if rules.Classify(t.Text, handles[t.AuthorID]) {
			verdict = "keep"
			included++
		}
		text := t.Text
		if len(text) > 60 {
			text = text[:60] + "..."
		}
		fmt.Printf("  [%s] @%s: %s\n", verdict, handles[t.AuthorID], text)
	}

	fmt.Printf("\n✅ Probe completed: %d tweets fetched, %d pass the classifier\n", len(page.Tweets), included)
	if page.HasMore {
		fmt.Println("   More pages available (pagination cursor returned)")
	}
}
