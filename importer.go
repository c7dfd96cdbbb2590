package harvester

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/linkbio/harvester/models"
)

// Store is the persistence surface the import engine needs. Each method
// must be atomic with respect to concurrent identical imports: identity
// keys are enforced by the store, not by application-level locking.
type Store interface {
	// UpsertSocialLink creates or overwrites the (user, platform) row,
	// always leaving it visible.
	UpsertSocialLink(ctx context.Context, userID, platform, url string) error

	// CreateCommunityLink inserts a (user, platform, url) row if absent
	// and reports whether a row was created.
	CreateCommunityLink(ctx context.Context, userID, platform, url, title string) (bool, error)

	// CreateShopLink inserts a (user, url) row if absent and reports
	// whether a row was created.
	CreateShopLink(ctx context.Context, link *models.ShopLink) (bool, error)
}

// Importer persists a classified link set into the per-user link
// collections with idempotent merge semantics.
type Importer struct {
	store Store
	log   *logrus.Logger
}

// NewImporter creates an Importer backed by the given store.
func NewImporter(store Store, log *logrus.Logger) *Importer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Importer{store: store, log: log}
}

// Import merges a classified set into the user's collections. Social
// entries upsert by (user, platform) and count on every call; community
// and shop entries insert-if-absent and count only new rows. Entries
// missing required fields are skipped, never fatal to the batch. A
// store failure aborts the remainder and returns the counts so far.
func (im *Importer) Import(ctx context.Context, userID string, links models.ClassifiedLinks) (models.ImportCounts, error) {
	var counts models.ImportCounts

	for _, entry := range links.Social {
		if entry.Platform == "" || entry.URL == "" {
			continue
		}
		if err := im.store.UpsertSocialLink(ctx, userID, entry.Platform, entry.URL); err != nil {
			return counts, fmt.Errorf("failed to upsert social link: %w", err)
		}
		counts.Social++
	}

	for _, entry := range links.Community {
		if entry.Platform == "" || entry.URL == "" {
			continue
		}
		title := "Join my " + entry.Platform
		created, err := im.store.CreateCommunityLink(ctx, userID, entry.Platform, entry.URL, title)
		if err != nil {
			return counts, fmt.Errorf("failed to create community link: %w", err)
		}
		if created {
			counts.Community++
		}
	}

	for _, entry := range links.AffiliateShop {
		if entry.URL == "" {
			continue
		}
		link := shopLinkFromEntry(userID, entry)
		if link == nil {
			continue
		}
		created, err := im.store.CreateShopLink(ctx, link)
		if err != nil {
			return counts, fmt.Errorf("failed to create shop link: %w", err)
		}
		if created {
			counts.Shop++
		}
	}

	im.log.WithFields(logrus.Fields{
		"user":      userID,
		"social":    counts.Social,
		"community": counts.Community,
		"shop":      counts.Shop,
	}).Info("links imported")

	return counts, nil
}

// shopLinkFromEntry fills in derived and defaulted fields. Returns nil
// for entries whose URL cannot be parsed; those are skipped.
func shopLinkFromEntry(userID string, entry models.ShopEntry) *models.ShopLink {
	u, err := ValidateURL(entry.URL)
	if err != nil {
		return nil
	}

	domain := entry.Domain
	if domain == "" {
		domain = NormalizeHost(u.Hostname())
	}
	title := entry.Title
	if title == "" {
		title = defaultShopTitle
	}

	return &models.ShopLink{
		UserID:      userID,
		URL:         entry.URL,
		Domain:      domain,
		Title:       title,
		ImageURL:    entry.ImageURL,
		Price:       entry.Price,
		Description: entry.Description,
	}
}
