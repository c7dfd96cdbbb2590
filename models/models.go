package models

import (
	"fmt"
	"time"
)

// SocialEntry is a classified social-profile link.
type SocialEntry struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// CommunityEntry is a classified community-channel link.
type CommunityEntry struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// ShopEntry is a classified shop/website link. Only URL is required;
// the remaining fields enrich the preview and may be filled in by the
// caller before import.
type ShopEntry struct {
	URL         string `json:"url"`
	Domain      string `json:"domain,omitempty"`
	Title       string `json:"title,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Price       string `json:"price,omitempty"`
	Description string `json:"description,omitempty"`
}

// ClassifiedLinks groups the surviving outbound links of a profile page
// into the three categories. Every surviving link lands in exactly one
// bucket.
type ClassifiedLinks struct {
	Social        []SocialEntry    `json:"social"`
	Community     []CommunityEntry `json:"community"`
	AffiliateShop []ShopEntry      `json:"affiliate_shop"`
}

// LinkMeta holds Open-Graph/meta-tag fields fetched for a single URL.
type LinkMeta struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Price       string `json:"price"`
}

// ImportCounts reports how many entries an import persisted per kind.
// Social counts every upsert; community and shop count only new rows.
type ImportCounts struct {
	Social    int `json:"social"`
	Community int `json:"community"`
	Shop      int `json:"shop"`
}

// SocialLink is a persisted social link. One row per (user, platform).
type SocialLink struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Platform  string    `json:"platform"`
	URL       string    `json:"url"`
	Visible   bool      `json:"visible"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommunityLink is a persisted community link. One row per
// (user, platform, url).
type CommunityLink struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Platform  string    `json:"platform"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// ShopLink is a persisted shop/website link. One row per (user, url).
// Clicks starts at zero and is only ever changed by the click counter.
type ShopLink struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	URL         string    `json:"url"`
	Domain      string    `json:"domain"`
	Title       string    `json:"title"`
	ImageURL    string    `json:"imageUrl"`
	Price       string    `json:"price"`
	Description string    `json:"description"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"created_at"`
}

// NotFoundError indicates a lookup by id matched no row.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// NewNotFound builds a NotFoundError with a formatted message.
func NewNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}
