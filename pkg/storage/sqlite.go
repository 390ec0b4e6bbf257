package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/librepod/librepod/pkg/delta"
	"github.com/librepod/librepod/pkg/model"
)

//go:embed sqlite_schema.sql
var sqliteSchema string

const channelColumns = `c.id, c.title, c.rss_link, c.website_link, c.author, c.description, c.tags, c.image,
	(SELECT COUNT(*) FROM episodes e WHERE e.channel_id = c.id)`

const episodeColumns = `id, channel_id, title, website_link, published, description, content, tags, audio_link`

// SQLite keeps channels and episodes in a local database file
type SQLite struct {
	db *sql.DB
}

var _ Storage = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	log.Infof("opening database %q", path)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "could not mkdir database dir")
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, "failed to execute %q", pragma)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to apply schema")
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", CurrentVersion)); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to set schema version")
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	log.Debug("closing database")
	return s.db.Close()
}

func (s *SQLite) Version() (int, error) {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, errors.Wrap(err, "failed to query schema version")
	}

	return version, nil
}

func (s *SQLite) ListChannelRefs(ctx context.Context) ([]model.ChannelRef, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, rss_link FROM channels ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query channels")
	}
	defer rows.Close()

	var out []model.ChannelRef
	for rows.Next() {
		var ref model.ChannelRef
		if err := rows.Scan(&ref.ID, &ref.FeedURL); err != nil {
			return nil, errors.Wrap(err, "failed to scan channel")
		}
		out = append(out, ref)
	}

	return out, rows.Err()
}

func (s *SQLite) AddChannel(ctx context.Context, channel *model.Channel) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO channels (id, title, rss_link, website_link, author, description, tags, image)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		channel.ID, channel.Title, channel.FeedURL, channel.SiteURL,
		channel.Author, channel.Description, channel.Tags, channel.Image,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to insert channel %s", channel.ID)
	}

	return expectAffected(res, model.ErrAlreadyExists)
}

func (s *SQLite) UpdateChannel(ctx context.Context, channel *model.Channel) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE channels
		SET title = ?, website_link = ?, author = ?, description = ?, tags = ?, image = ?
		WHERE id = ?`,
		channel.Title, channel.SiteURL, channel.Author, channel.Description, channel.Tags, channel.Image,
		channel.ID,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to update channel %s", channel.ID)
	}

	return expectAffected(res, model.ErrNotFound)
}

func (s *SQLite) GetChannel(ctx context.Context, channelID uuid.UUID) (*model.Channel, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+channelColumns+` FROM channels c WHERE c.id = ?`, channelID)

	channel, err := scanChannel(row)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to query channel %s", channelID)
	}

	return channel, nil
}

func (s *SQLite) ListChannels(ctx context.Context) ([]*model.Channel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+channelColumns+` FROM channels c ORDER BY c.title, c.id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query channels")
	}
	defer rows.Close()

	var out []*model.Channel
	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan channel")
		}
		out = append(out, channel)
	}

	return out, rows.Err()
}

func (s *SQLite) DeleteChannel(ctx context.Context, channelID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM episodes WHERE channel_id = ?`, channelID); err != nil {
		return errors.Wrapf(err, "failed to delete episodes of channel %s", channelID)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM channels WHERE id = ?`, channelID)
	if err != nil {
		return errors.Wrapf(err, "failed to delete channel %s", channelID)
	}

	if err := expectAffected(res, model.ErrNotFound); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLite) ChannelEpisodes(ctx context.Context, channelID uuid.UUID, limit int) ([]*model.Episode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+episodeColumns+` FROM episodes
		WHERE channel_id = ?
		ORDER BY published DESC
		LIMIT ?`, channelID, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query episodes of channel %s", channelID)
	}
	defer rows.Close()

	var out []*model.Episode
	for rows.Next() {
		var (
			episode   model.Episode
			published int64
		)

		if err := rows.Scan(
			&episode.ID, &episode.ChannelID, &episode.Title, &episode.SiteURL, &published,
			&episode.Description, &episode.Content, &episode.Tags, &episode.AudioURL,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan episode")
		}

		episode.Published = time.Unix(0, published).UTC()
		out = append(out, &episode)
	}

	return out, rows.Err()
}

func (s *SQLite) LastPublished(ctx context.Context, channelID uuid.UUID) (*time.Time, error) {
	var published sql.NullInt64

	err := s.db.QueryRowContext(ctx, `SELECT MAX(published) FROM episodes WHERE channel_id = ?`, channelID).Scan(&published)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query last episode of channel %s", channelID)
	}

	if !published.Valid {
		return nil, nil
	}

	ts := time.Unix(0, published.Int64).UTC()
	return &ts, nil
}

func (s *SQLite) Begin(ctx context.Context) (delta.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}

	return &sqliteTx{tx: tx}, nil
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) InsertEpisode(ctx context.Context, episode *model.Episode) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO episodes (`+episodeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (channel_id, id) DO NOTHING`,
		episode.ID, episode.ChannelID, episode.Title, episode.SiteURL, episode.Published.UnixNano(),
		episode.Description, episode.Content, episode.Tags, episode.AudioURL,
	)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanChannel(row scanner) (*model.Channel, error) {
	var channel model.Channel
	if err := row.Scan(
		&channel.ID, &channel.Title, &channel.FeedURL, &channel.SiteURL,
		&channel.Author, &channel.Description, &channel.Tags, &channel.Image,
		&channel.EpisodeCount,
	); err != nil {
		return nil, err
	}

	return &channel, nil
}

func expectAffected(res sql.Result, errNone error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to query affected rows")
	}

	if affected == 0 {
		return errNone
	}

	return nil
}
