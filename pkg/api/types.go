package api

import "time"

// Entry is a stored note. Body holds the exact Markdown source.
type Entry struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Namespace string    `json:"namespace"`
}

// Touch bumps UpdatedAt; call before persisting an update.
func (e *Entry) Touch(now time.Time) { e.UpdatedAt = now.UTC() }

// Page carries opaque cursors for the neighbouring pages.
type Page struct {
	Next string `json:"next,omitempty"`
	Prev string `json:"prev,omitempty"`
}

// ListQuery filters entries for listing.
type ListQuery struct {
	Namespace   string
	Since       time.Time
	Until       time.Time
	Any         []string // match if entry has ANY of these tags
	All         []string // match if entry has ALL of these tags
	Limit       int
	Cursor      string
	Reverse     bool
	IncludeBody bool
}

// SearchQuery runs a full-text query, optionally narrowed by tags.
type SearchQuery struct {
	Namespace string
	Query     string
	Since     time.Time
	Until     time.Time
	Any       []string
	All       []string
	Limit     int
	Cursor    string
	Reverse   bool
}

// TagsQuery filters the tag listing.
type TagsQuery struct {
	Namespace string
	Prefix    string
	Limit     int
}

// TagStat is a tag with the number of notes carrying it.
type TagStat struct {
	Tag         string `json:"tag"`
	Count       int    `json:"count"`
	Description string `json:"description,omitempty"`
}

// LinkPreview is the Open Graph style summary of a linked page.
type LinkPreview struct {
	URL         string    `json:"url"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	SiteName    string    `json:"site_name,omitempty"`
	Favicon     string    `json:"favicon,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Empty reports whether the preview carries nothing worth showing.
func (p LinkPreview) Empty() bool {
	return p.Title == "" && p.Description == "" && p.Image == ""
}
