package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"novelhub/internal/novel"
	"novelhub/internal/scraper"
	"novelhub/pkg/database"
	"novelhub/pkg/utils"
)

func main() {
	flag.Parse()
	cfg := utils.Load()
	logger := utils.NewLogger(nil, cfg.LogLevel)

	sitemapURL := flag.Arg(0)
	if sitemapURL == "" {
		logger.Fatal("usage: scraper <sitemap-url>")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal("db migrate failed", "err", err)
	}

	fetcher := scraper.NewFetcher(cfg.FetchTimeout, cfg.UserAgent)
	resolver := scraper.NewSitemapResolver(fetcher, logger)
	repo := novel.NewRepo(db)
	pipeline := scraper.NewPipeline(fetcher, resolver, repo, nil, logger)

	sum, err := pipeline.Run(ctx, sitemapURL)
	if err != nil {
		logger.Error("scrape failed", "err", err)
		os.Exit(1)
	}

	logger.Info("scrape complete",
		"attempted", sum.Attempted,
		"processed", sum.Processed,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
	)
}
