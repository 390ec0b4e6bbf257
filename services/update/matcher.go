package update

import (
	"regexp"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/librepod/librepod/pkg/feed"
	"github.com/librepod/librepod/pkg/model"
)

func matchRegexpFilter(pattern, str string, negative bool, logger log.FieldLogger) bool {
	if pattern != "" {
		matched, err := regexp.MatchString(pattern, str)
		if err != nil {
			logger.Warnf("pattern %q is not a valid regexp", pattern)
		} else {
			if matched == negative {
				logger.Debug("skipping due to mismatch")
				return false
			}
		}
	}
	return true
}

func matchFilters(episode *model.Episode, filters *feed.Filters, now time.Time) bool {
	logger := log.WithFields(log.Fields{"episode_id": episode.ID})
	if !matchRegexpFilter(filters.Title, episode.Title, false, logger.WithField("filter", "title")) {
		return false
	}

	if !matchRegexpFilter(filters.NotTitle, episode.Title, true, logger.WithField("filter", "not_title")) {
		return false
	}

	if !matchRegexpFilter(filters.Description, episode.Description, false, logger.WithField("filter", "description")) {
		return false
	}

	if !matchRegexpFilter(filters.NotDescription, episode.Description, true, logger.WithField("filter", "not_description")) {
		return false
	}

	if filters.MaxAge > 0 {
		dateDiff := int(now.Sub(episode.Published).Hours()) / 24
		if dateDiff > filters.MaxAge {
			logger.WithField("filter", "max_age").Debugf("skipping due to max_age filter (%d > %d)", dateDiff, filters.MaxAge)
			return false
		}
	}

	return true
}

// filterEpisodes keeps order of the matching episodes
func filterEpisodes(episodes []*model.Episode, filters *feed.Filters, now time.Time) []*model.Episode {
	if filters == nil {
		return episodes
	}

	out := make([]*model.Episode, 0, len(episodes))
	for _, episode := range episodes {
		if matchFilters(episode, filters, now) {
			out = append(out, episode)
		}
	}

	return out
}
