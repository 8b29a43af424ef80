package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/wikimech/wikiext/page"
	"github.com/wikimech/wikiext/wiki"
)

// measureResolverMemoization compares a cold redirect-closure resolution
// against the memoized repeat call.
func measureResolverMemoization(titles []string) {
	config, err := wiki.LoadConfig()
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		return
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	client := wiki.NewClient(config, logger)
	defer client.Close()
	svc := wiki.NewPageService(client)
	resolver := page.NewResolver(svc, logger)
	ctx := context.Background()

	seeds := page.NewSet()
	for _, title := range titles {
		ref, err := svc.Ref(ctx, title, page.NamespaceMain)
		if err != nil {
			fmt.Printf("Bad title %q: %v\n", title, err)
			return
		}
		seeds.Add(ref)
	}

	fmt.Println("=== Redirect Closure Memoization Test ===")
	fmt.Println()

	start := time.Now()
	closure, err := resolver.ResolveClosure(ctx, seeds, nil)
	if err != nil {
		fmt.Printf("   Error: %v\n", err)
		return
	}
	firstCall := time.Since(start)
	fmt.Printf("   First call (network):  %v (%d titles in closure)\n", firstCall, len(closure))

	start = time.Now()
	_, _ = resolver.ResolveClosure(ctx, seeds, nil)
	secondCall := time.Since(start)
	fmt.Printf("   Second call (memoized): %v\n", secondCall)
	if secondCall > 0 {
		fmt.Printf("   Speedup: %.0fx faster\n", float64(firstCall)/float64(secondCall))
	}
	fmt.Println()

	// A set-equal input built in a different order must hit the same entry.
	reordered := page.NewSet()
	for i := len(titles) - 1; i >= 0; i-- {
		ref, _ := svc.Ref(ctx, titles[i], page.NamespaceMain)
		reordered.Add(ref)
	}
	start = time.Now()
	_, _ = resolver.ResolveClosure(ctx, reordered, nil)
	fmt.Printf("   Reordered seeds (memoized): %v\n", time.Since(start))
	fmt.Printf("   Memo entries: %d\n", resolver.CacheSize())
	fmt.Println()
}

// measureClientCache shows the effect of the HTTP-level response cache on
// repeated page-info lookups.
func measureClientCache(title string) {
	config, err := wiki.LoadConfig()
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		return
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	client := wiki.NewClient(config, logger)
	defer client.Close()
	ctx := context.Background()

	fmt.Println("=== Client Response Cache Test ===")
	fmt.Println()

	start := time.Now()
	info, err := client.PageInfo(ctx, title)
	if err != nil {
		fmt.Printf("   Error: %v\n", err)
		return
	}
	firstCall := time.Since(start)
	fmt.Printf("   PageInfo(%q) first call (network): %v (exists=%v)\n", title, firstCall, info.Exists)

	start = time.Now()
	_, _ = client.PageInfo(ctx, title)
	secondCall := time.Since(start)
	fmt.Printf("   PageInfo(%q) second call (cached): %v\n", title, secondCall)
	if secondCall > 0 {
		fmt.Printf("   Speedup: %.0fx faster\n", float64(firstCall)/float64(secondCall))
	}
	fmt.Println()
}

func main() {
	_ = godotenv.Load()

	fmt.Println("Wikiext MCP Server - Performance Measurements")
	fmt.Println("=============================================")
	fmt.Println()

	titles := os.Args[1:]
	if len(titles) == 0 {
		titles = []string{"Main Page"}
	}

	measureResolverMemoization(titles)
	measureClientCache(titles[0])

	fmt.Println("=== Summary ===")
	fmt.Println()
	fmt.Println("Key behaviors:")
	fmt.Println("• Closure memoization: repeat resolutions skip the network entirely")
	fmt.Println("• Canonical keys: seed order does not create duplicate memo entries")
	fmt.Println("• Response cache: page metadata lookups are served from memory within TTL")
}
