package novel

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"novelhub/internal/scraper"
)

// Converter runs the scrape-and-persist pipeline for one sitemap URL.
// Implemented by scraper.Pipeline.
type Converter interface {
	Run(ctx context.Context, sitemapURL string) (scraper.Summary, error)
}

type Handler struct {
	Repo      *Repo
	Converter Converter
	Logger    *log.Logger
}

func NewHandler(repo *Repo, conv Converter, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{Repo: repo, Converter: conv, Logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/convert", h.convert)
	r.GET("/api/novels", h.list)
}

type convertRequest struct {
	URL string `json:"url"`
}

// convert drives one pipeline run against the posted sitemap URL.
// Per-page failures are already absorbed by the pipeline; only a
// sitemap-level failure surfaces as a 500 here.
func (h *Handler) convert(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "URL is required"})
		return
	}

	sum, err := h.Converter.Run(c.Request.Context(), req.URL)
	if err != nil {
		h.Logger.Error("conversion failed", "url", req.URL, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Error processing URL",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      fmt.Sprintf("Stored %d new novels out of %d sitemap entries", sum.Processed, sum.Attempted),
		"novels_count": sum.Processed,
		"attempted":    sum.Attempted,
	})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Repo.ListAll(c.Request.Context())
	if err != nil {
		h.Logger.Error("list novels failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}
