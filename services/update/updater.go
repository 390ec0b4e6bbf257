package update

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/librepod/librepod/pkg/delta"
	"github.com/librepod/librepod/pkg/feed"
	"github.com/librepod/librepod/pkg/httpcache"
	"github.com/librepod/librepod/pkg/model"
	"github.com/librepod/librepod/pkg/storage"
)

// ErrRejected is returned when a feed document can't produce a channel
var ErrRejected = errors.New("feed has no title or links")

type Fetcher interface {
	Fetch(ctx context.Context, address string) (*httpcache.Result, error)
	// Forget makes the next fetch of address a Miss
	Forget(ctx context.Context, address string) error
}

type Manager struct {
	fetcher     Fetcher
	db          storage.Storage
	concurrency int
	filters     *feed.Filters
	hooks       []*feed.ExecHook
	now         func() time.Time
}

func NewUpdater(fetcher Fetcher, db storage.Storage, concurrency int, filters *feed.Filters) (*Manager, error) {
	if fetcher == nil || db == nil {
		return nil, errors.New("fetcher and storage are required")
	}

	if concurrency <= 0 {
		concurrency = model.DefaultConcurrency
	}

	return &Manager{
		fetcher:     fetcher,
		db:          db,
		concurrency: concurrency,
		filters:     filters,
		now:         time.Now,
	}, nil
}

// OnNewEpisodes registers hooks to run after a refresh inserted at least one episode.
// Hook failures are logged and don't change the refresh status.
func (u *Manager) OnNewEpisodes(hooks ...*feed.ExecHook) {
	u.hooks = append(u.hooks, hooks...)
}

// RefreshAll refreshes every known channel.
// A failing channel never affects the others, the error is returned only if channels can't be listed.
func (u *Manager) RefreshAll(ctx context.Context) (*Report, error) {
	refs, err := u.db.ListChannelRefs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list channels")
	}

	log.Infof("-> refreshing %d channel(s)", len(refs))
	started := time.Now()

	report := &Report{Results: make([]ChannelResult, len(refs))}

	var group errgroup.Group
	group.SetLimit(u.concurrency)

	for i, ref := range refs {
		i, ref := i, ref
		group.Go(func() error {
			report.Results[i] = u.Refresh(ctx, ref)
			return nil
		})
	}

	_ = group.Wait()

	log.WithFields(log.Fields{
		"succeeded": report.Succeeded(),
		"failed":    report.Failed(),
		"inserted":  report.Inserted(),
	}).Infof("refresh finished in %s", time.Since(started))

	return report, nil
}

// Refresh fetches a single channel and merges its new episodes
func (u *Manager) Refresh(ctx context.Context, ref model.ChannelRef) ChannelResult {
	logger := log.WithFields(log.Fields{
		"channel_id": ref.ID,
		"url":        ref.FeedURL,
	})

	result := ChannelResult{ChannelID: ref.ID, FeedURL: ref.FeedURL}

	res, err := u.fetcher.Fetch(ctx, ref.FeedURL)
	if err != nil {
		logger.WithError(err).Error("failed to fetch feed")
		result.Status, result.Err = StatusFailed, err
		return result
	}

	switch res.Kind {
	case httpcache.Hit:
		logger.Debug("feed not modified")
		result.Status = StatusUnchanged
		return result
	case httpcache.Miss:
	default:
		result.Status, result.Err = StatusFailed, errors.Errorf("unexpected fetch result %s", res.Kind)
		return result
	}

	data, err := u.project(res.Response.Body, ref.FeedURL)
	if err == ErrRejected {
		logger.Warn("feed rejected")
		result.Status, result.Err = StatusRejected, err
		return result
	} else if err != nil {
		logger.WithError(err).Error("failed to parse feed")
		result.Status, result.Err = StatusFailed, err
		return result
	}

	if data.Channel.ID != ref.ID {
		logger.Warnf("feed identity changed to %s, keeping stored channel", data.Channel.ID)
		data.Channel.ID = ref.ID
		for _, episode := range data.Episodes {
			episode.ChannelID = ref.ID
		}
	}

	if err := u.db.UpdateChannel(ctx, data.Channel); err != nil {
		logger.WithError(err).Error("failed to update channel")
		u.forget(ctx, ref.FeedURL)
		result.Status, result.Err = StatusFailed, err
		return result
	}

	inserted, err := delta.Sync(ctx, u.db, data)
	if err != nil {
		logger.WithError(err).Error("failed to sync episodes")
		u.forget(ctx, ref.FeedURL)
		result.Status, result.Err = StatusFailed, err
		return result
	}

	result.Status, result.Inserted = StatusOK, inserted

	if inserted > 0 {
		u.runHooks(ctx, data.Channel, inserted)
	}

	return result
}

func (u *Manager) runHooks(ctx context.Context, channel *model.Channel, inserted int) {
	env := []string{
		"CHANNEL_ID=" + channel.ID.String(),
		"CHANNEL_TITLE=" + channel.Title,
		"FEED_URL=" + channel.FeedURL,
		"NEW_EPISODES=" + strconv.Itoa(inserted),
	}

	for _, hook := range u.hooks {
		if err := hook.Invoke(ctx, env); err != nil {
			log.WithError(err).WithField("channel_id", channel.ID).Error("failed to execute hook")
		}
	}
}

// Subscribe adds the channel behind feedURL (if not known yet) and imports its episodes
func (u *Manager) Subscribe(ctx context.Context, feedURL string) (*model.Channel, error) {
	logger := log.WithField("url", feedURL)
	logger.Info("subscribing")

	res, err := u.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	data, err := u.project(res.Response.Body, feedURL)
	if err != nil {
		return nil, err
	}

	err = u.db.AddChannel(ctx, data.Channel)
	if err == model.ErrAlreadyExists {
		logger.Debugf("channel %s already exists", data.Channel.ID)
	} else if err != nil {
		u.forget(ctx, feedURL)
		return nil, err
	}

	if _, err := delta.Sync(ctx, u.db, data); err != nil {
		u.forget(ctx, feedURL)
		return nil, err
	}

	return u.db.GetChannel(ctx, data.Channel.ID)
}

// forget drops the cached body so the next refresh recomputes the same tail
func (u *Manager) forget(ctx context.Context, feedURL string) {
	if err := u.fetcher.Forget(ctx, feedURL); err != nil {
		log.WithError(err).WithField("url", feedURL).Error("failed to drop cached feed")
	}
}

func (u *Manager) project(body []byte, feedURL string) (*model.RssData, error) {
	parsed, err := feed.Parse(body)
	if err != nil {
		return nil, err
	}

	data, ok := feed.Project(parsed, feedURL)
	if !ok {
		return nil, ErrRejected
	}

	data.Episodes = filterEpisodes(data.Episodes, u.filters, u.now())
	return data, nil
}
