package db

// Migrations for the per-user link collections. The unique constraints
// below are the identity keys of the import engine; every merge
// guarantee rests on them.

var postgresMigrations = []Migration{
	{
		Version: 1,
		Name:    "create_social_links_table",
		Up: `
			CREATE TABLE IF NOT EXISTS social_links (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				platform TEXT NOT NULL,
				url TEXT NOT NULL,
				visible BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ DEFAULT NOW(),
				updated_at TIMESTAMPTZ DEFAULT NOW(),
				UNIQUE (user_id, platform)
			);
			CREATE INDEX IF NOT EXISTS idx_social_links_user_id ON social_links(user_id);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_social_links_user_id;
			DROP TABLE IF EXISTS social_links;
		`,
	},
	{
		Version: 2,
		Name:    "create_community_links_table",
		Up: `
			CREATE TABLE IF NOT EXISTS community_links (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				platform TEXT NOT NULL,
				url TEXT NOT NULL,
				title TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ DEFAULT NOW(),
				UNIQUE (user_id, platform, url)
			);
			CREATE INDEX IF NOT EXISTS idx_community_links_user_id ON community_links(user_id);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_community_links_user_id;
			DROP TABLE IF EXISTS community_links;
		`,
	},
	{
		Version: 3,
		Name:    "create_shop_links_table",
		Up: `
			CREATE TABLE IF NOT EXISTS shop_links (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				url TEXT NOT NULL,
				domain TEXT NOT NULL DEFAULT '',
				title TEXT NOT NULL DEFAULT '',
				image_url TEXT NOT NULL DEFAULT '',
				price TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				clicks BIGINT NOT NULL DEFAULT 0,
				created_at TIMESTAMPTZ DEFAULT NOW(),
				UNIQUE (user_id, url)
			);
			CREATE INDEX IF NOT EXISTS idx_shop_links_user_id ON shop_links(user_id);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_shop_links_user_id;
			DROP TABLE IF EXISTS shop_links;
		`,
	},
}
