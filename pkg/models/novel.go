package models

// NovelRecord is the normalized, internal form of a scraped novel page
// used by the scraper and repository layer.
//
// The extractor maps every detail page into this structure first,
// then we write to the DB from this representation.
type NovelRecord struct {
	Title     string   `json:"title"`                 // required; pages without one are skipped
	SourceURL string   `json:"source_url"`            // canonical page URL, the dedup key
	Synopsis  string   `json:"synopsis,omitempty"`    // description text (optional)
	CoverURL  string   `json:"cover_url,omitempty"`   // cover image URL (optional)
	Author    string   `json:"author,omitempty"`      // author display name (optional)
	Genres    []string `json:"genres"`                // document order, not deduplicated here
}

// NovelWithMeta is the read-side shape: one novel joined with its author
// name and genre list, as returned by GET /api/novels.
type NovelWithMeta struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	SourceURL     string   `json:"source_url"`
	Synopsis      string   `json:"synopsis"`
	CoverImageURL string   `json:"cover_image_url"`
	AuthorName    string   `json:"author_name"`
	Genres        []string `json:"genres"`
}
