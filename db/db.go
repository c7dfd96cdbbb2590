package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/linkbio/harvester/models"
)

// DB wraps the database connection and provides the link collections.
// Identity-key semantics (upsert, insert-if-absent, atomic increment)
// are enforced by PostgreSQL conflict targets so that concurrent
// identical imports cannot produce duplicate rows or lost updates.
type DB struct {
	conn *sql.DB
}

// Config contains database configuration.
type Config struct {
	DSN string // PostgreSQL connection string
}

// New creates a new database connection and runs pending migrations.
func New(config Config) (*DB, error) {
	conn, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// DB returns the underlying connection for health checks.
func (db *DB) DB() *sql.DB {
	return db.conn
}

// UpsertSocialLink creates or overwrites the user's link for a
// platform. Importing a new URL for a platform the user already has
// replaces that platform's URL; it never creates a duplicate row.
func (db *DB) UpsertSocialLink(ctx context.Context, userID, platform, url string) error {
	query := `
		INSERT INTO social_links (id, user_id, platform, url, visible, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW())
		ON CONFLICT (user_id, platform) DO UPDATE SET
			url = EXCLUDED.url,
			visible = TRUE,
			updated_at = NOW()
	`
	if _, err := db.conn.ExecContext(ctx, query, uuid.New().String(), userID, platform, url); err != nil {
		return fmt.Errorf("failed to upsert social link: %w", err)
	}
	return nil
}

// CreateCommunityLink inserts a community link if the exact
// (user, platform, url) triple is absent. Reports whether a row was
// created; duplicates are silently skipped.
func (db *DB) CreateCommunityLink(ctx context.Context, userID, platform, url, title string) (bool, error) {
	query := `
		INSERT INTO community_links (id, user_id, platform, url, title, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id, platform, url) DO NOTHING
	`
	result, err := db.conn.ExecContext(ctx, query, uuid.New().String(), userID, platform, url, title)
	if err != nil {
		return false, fmt.Errorf("failed to create community link: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows == 1, nil
}

// CreateShopLink inserts a shop link if the (user, url) pair is absent.
// Reports whether a row was created. Clicks always start at zero.
func (db *DB) CreateShopLink(ctx context.Context, link *models.ShopLink) (bool, error) {
	if link.ID == "" {
		link.ID = uuid.New().String()
	}
	query := `
		INSERT INTO shop_links (id, user_id, url, domain, title, image_url, price, description, clicks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, NOW())
		ON CONFLICT (user_id, url) DO NOTHING
	`
	result, err := db.conn.ExecContext(ctx, query,
		link.ID, link.UserID, link.URL, link.Domain, link.Title,
		link.ImageURL, link.Price, link.Description,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create shop link: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows == 1, nil
}

// IncrementShopLinkClicks atomically bumps a shop link's click counter
// and returns the new value. An unknown id yields NotFoundError and
// never creates a row.
func (db *DB) IncrementShopLinkClicks(ctx context.Context, id string) (int64, error) {
	var clicks int64
	query := `UPDATE shop_links SET clicks = clicks + 1 WHERE id = $1 RETURNING clicks`
	err := db.conn.QueryRowContext(ctx, query, id).Scan(&clicks)
	if err == sql.ErrNoRows {
		return 0, models.NewNotFound("no shop link found with id: %s", id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment clicks: %w", err)
	}
	return clicks, nil
}

// GetShopLink retrieves a shop link by id.
func (db *DB) GetShopLink(ctx context.Context, id string) (*models.ShopLink, error) {
	query := `
		SELECT id, user_id, url, domain, title, image_url, price, description, clicks, created_at
		FROM shop_links WHERE id = $1
	`
	link := &models.ShopLink{}
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&link.ID, &link.UserID, &link.URL, &link.Domain, &link.Title,
		&link.ImageURL, &link.Price, &link.Description, &link.Clicks, &link.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFound("no shop link found with id: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query shop link: %w", err)
	}
	return link, nil
}
