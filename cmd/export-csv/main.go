package main

import (
	"context"
	"encoding/csv"
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"novelhub/internal/novel"
	"novelhub/pkg/database"
	"novelhub/pkg/utils"
)

func main() {
	out := flag.String("out", "data/novels.csv", "output CSV path")
	flag.Parse()

	cfg := utils.Load()
	logger := utils.NewLogger(nil, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal("db migrate failed", "err", err)
	}

	repo := novel.NewRepo(db)
	novels, err := repo.ListAll(ctx)
	if err != nil {
		logger.Fatal("list novels failed", "err", err)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		logger.Fatal("create output dir failed", "err", err)
	}

	f, err := os.Create(*out)
	if err != nil {
		logger.Fatal("create output file failed", "err", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"id", "title", "source_url", "synopsis", "cover_image_url", "author_name", "genres"}
	if err := w.Write(header); err != nil {
		logger.Fatal("write header failed", "err", err)
	}

	for _, n := range novels {
		row := []string{
			strconv.FormatInt(n.ID, 10),
			n.Title,
			n.SourceURL,
			n.Synopsis,
			n.CoverImageURL,
			n.AuthorName,
			strings.Join(n.Genres, ";"),
		}
		if err := w.Write(row); err != nil {
			logger.Fatal("write row failed", "err", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		logger.Fatal("flush failed", "err", err)
	}

	logger.Info("exported novels", "count", len(novels), "path", *out)
}
