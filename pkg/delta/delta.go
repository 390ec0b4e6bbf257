// Package delta merges newly observed episodes into persistent storage.
package delta

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/librepod/librepod/pkg/model"
)

// Store is the part of persistent storage the delta sync needs
type Store interface {
	// LastPublished returns the newest publish date stored for a channel, nil if it has no episodes
	LastPublished(ctx context.Context, channelID uuid.UUID) (*time.Time, error)
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a scoped transaction, every insert of a sync goes through it
type Tx interface {
	// InsertEpisode returns false if the episode already exists
	InsertEpisode(ctx context.Context, episode *model.Episode) (bool, error)
	Commit() error
	Rollback() error
}

// Tail returns episodes published strictly after watermark.
// Episodes must be sorted by publish date, oldest first.
func Tail(episodes []*model.Episode, watermark *time.Time) []*model.Episode {
	if watermark == nil {
		return episodes
	}

	idx := sort.Search(len(episodes), func(i int) bool {
		return episodes[i].Published.After(*watermark)
	})

	return episodes[idx:]
}

// Sync inserts episodes newer than the latest stored one in a single transaction.
// Returns the number of inserted episodes.
func Sync(ctx context.Context, store Store, data *model.RssData) (int, error) {
	if data == nil || data.Channel == nil {
		return 0, errors.New("nothing to sync")
	}

	logger := log.WithField("channel_id", data.Channel.ID)

	watermark, err := store.LastPublished(ctx, data.Channel.ID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to query latest episode")
	}

	tail := Tail(data.Episodes, watermark)
	if len(tail) == 0 {
		logger.Debug("no new episodes")
		return 0, nil
	}

	tx, err := store.Begin(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin transaction")
	}

	inserted := 0
	for _, episode := range tail {
		ok, err := tx.InsertEpisode(ctx, episode)
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				logger.WithError(rollbackErr).Error("failed to rollback transaction")
			}
			return 0, errors.Wrapf(err, "failed to insert episode %s", episode.ID)
		}

		if ok {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit episodes")
	}

	logger.WithField("count", inserted).Info("inserted new episodes")
	return inserted, nil
}
