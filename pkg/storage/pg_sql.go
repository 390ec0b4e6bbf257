package storage

const pgsql = `
BEGIN;

-- Channels

CREATE TABLE IF NOT EXISTS channels (
  id UUID PRIMARY KEY,
  title TEXT NOT NULL,
  rss_link TEXT NOT NULL,
  website_link TEXT NOT NULL,
  author TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  tags TEXT NOT NULL DEFAULT '',
  image TEXT NOT NULL DEFAULT ''
);

-- Episodes

CREATE TABLE IF NOT EXISTS episodes (
  id UUID NOT NULL,
  channel_id UUID NOT NULL REFERENCES channels(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  website_link TEXT NOT NULL,
  published TIMESTAMPTZ NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  content TEXT NOT NULL DEFAULT '',
  tags TEXT NOT NULL DEFAULT '',
  audio_link TEXT NOT NULL,
  PRIMARY KEY (channel_id, id)
);

CREATE INDEX IF NOT EXISTS episodes_published_idx ON episodes(channel_id, published);

COMMIT;
`
