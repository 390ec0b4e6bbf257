package storage

import (
	"context"
	"time"

	"github.com/go-pg/pg"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/librepod/librepod/pkg/delta"
	"github.com/librepod/librepod/pkg/model"
)

const pgChannelColumns = `c.id, c.title, c.rss_link AS feed_url, c.website_link AS site_url,
	c.author, c.description, c.tags, c.image, COUNT(e.id) AS episode_count`

const pgEpisodeColumns = `id, channel_id, title, website_link AS site_url, published,
	description, content, tags, audio_link AS audio_url`

// Postgres keeps channels and episodes in a PostgreSQL database
type Postgres struct {
	db *pg.DB
}

var _ Storage = (*Postgres)(nil)

func NewPostgres(connectionURL string, ping bool) (*Postgres, error) {
	opts, err := pg.ParseURL(connectionURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse database URL")
	}

	db := pg.Connect(opts)

	// Check database connectivity
	if ping {
		if _, err := db.ExecOne("SELECT 1"); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "failed to check database connectivity")
		}

		if _, err := db.Exec(pgsql); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "failed to apply schema")
		}
	}

	log.Infof("connected to database %s", opts.Addr)
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) ListChannelRefs(ctx context.Context) ([]model.ChannelRef, error) {
	var out []model.ChannelRef

	_, err := p.db.WithContext(ctx).Query(&out, `SELECT id, rss_link AS feed_url FROM channels ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query channels")
	}

	return out, nil
}

func (p *Postgres) AddChannel(ctx context.Context, channel *model.Channel) error {
	res, err := p.db.WithContext(ctx).Exec(`
		INSERT INTO channels (id, title, rss_link, website_link, author, description, tags, image)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		channel.ID, channel.Title, channel.FeedURL, channel.SiteURL,
		channel.Author, channel.Description, channel.Tags, channel.Image,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to insert channel %s", channel.ID)
	}

	if res.RowsAffected() == 0 {
		return model.ErrAlreadyExists
	}

	return nil
}

func (p *Postgres) UpdateChannel(ctx context.Context, channel *model.Channel) error {
	res, err := p.db.WithContext(ctx).Exec(`
		UPDATE channels
		SET title = ?, website_link = ?, author = ?, description = ?, tags = ?, image = ?
		WHERE id = ?`,
		channel.Title, channel.SiteURL, channel.Author, channel.Description, channel.Tags, channel.Image,
		channel.ID,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to update channel %s", channel.ID)
	}

	if res.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (p *Postgres) GetChannel(ctx context.Context, channelID uuid.UUID) (*model.Channel, error) {
	channel := &model.Channel{}

	_, err := p.db.WithContext(ctx).QueryOne(channel, `
		SELECT `+pgChannelColumns+`
		FROM channels c LEFT JOIN episodes e ON e.channel_id = c.id
		WHERE c.id = ?
		GROUP BY c.id`, channelID)
	if err == pg.ErrNoRows {
		return nil, model.ErrNotFound
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to query channel %s", channelID)
	}

	return channel, nil
}

func (p *Postgres) ListChannels(ctx context.Context) ([]*model.Channel, error) {
	var out []*model.Channel

	_, err := p.db.WithContext(ctx).Query(&out, `
		SELECT `+pgChannelColumns+`
		FROM channels c LEFT JOIN episodes e ON e.channel_id = c.id
		GROUP BY c.id
		ORDER BY c.title, c.id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query channels")
	}

	return out, nil
}

func (p *Postgres) DeleteChannel(ctx context.Context, channelID uuid.UUID) error {
	return p.db.WithContext(ctx).RunInTransaction(func(tx *pg.Tx) error {
		if _, err := tx.Exec(`DELETE FROM episodes WHERE channel_id = ?`, channelID); err != nil {
			return errors.Wrapf(err, "failed to delete episodes of channel %s", channelID)
		}

		res, err := tx.Exec(`DELETE FROM channels WHERE id = ?`, channelID)
		if err != nil {
			return errors.Wrapf(err, "failed to delete channel %s", channelID)
		}

		if res.RowsAffected() == 0 {
			return model.ErrNotFound
		}

		return nil
	})
}

func (p *Postgres) ChannelEpisodes(ctx context.Context, channelID uuid.UUID, limit int) ([]*model.Episode, error) {
	var out []*model.Episode

	_, err := p.db.WithContext(ctx).Query(&out, `
		SELECT `+pgEpisodeColumns+` FROM episodes
		WHERE channel_id = ?
		ORDER BY published DESC
		LIMIT ?`, channelID, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query episodes of channel %s", channelID)
	}

	for _, episode := range out {
		episode.Published = episode.Published.UTC()
	}

	return out, nil
}

func (p *Postgres) LastPublished(ctx context.Context, channelID uuid.UUID) (*time.Time, error) {
	var published time.Time

	_, err := p.db.WithContext(ctx).QueryOne(pg.Scan(&published), `
		SELECT published FROM episodes
		WHERE channel_id = ?
		ORDER BY published DESC
		LIMIT 1`, channelID)
	if err == pg.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to query last episode of channel %s", channelID)
	}

	published = published.UTC()
	return &published, nil
}

func (p *Postgres) Begin(ctx context.Context) (delta.Tx, error) {
	tx, err := p.db.WithContext(ctx).Begin()
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}

	return &pgTx{tx: tx}, nil
}

type pgTx struct {
	tx *pg.Tx
}

func (t *pgTx) InsertEpisode(_ context.Context, episode *model.Episode) (bool, error) {
	res, err := t.tx.Exec(`
		INSERT INTO episodes (id, channel_id, title, website_link, published, description, content, tags, audio_link)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (channel_id, id) DO NOTHING`,
		episode.ID, episode.ChannelID, episode.Title, episode.SiteURL, episode.Published,
		episode.Description, episode.Content, episode.Tags, episode.AudioURL,
	)
	if err != nil {
		return false, err
	}

	return res.RowsAffected() > 0, nil
}

func (t *pgTx) Commit() error {
	return t.tx.Commit()
}

func (t *pgTx) Rollback() error {
	return t.tx.Rollback()
}
