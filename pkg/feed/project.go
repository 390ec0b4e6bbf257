// Package feed turns parsed feed documents into channels and episodes.
package feed

import (
	"sort"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/librepod/librepod/pkg/id"
	"github.com/librepod/librepod/pkg/model"
)

// Project builds channel and episodes from a parsed feed.
// Returns false if the feed can't produce a channel, in which case no episodes are projected.
func Project(f *gofeed.Feed, feedURL string) (*model.RssData, bool) {
	channel, ok := ProjectChannel(f, feedURL)
	if !ok {
		return nil, false
	}

	episodes := make([]*model.Episode, 0, len(f.Items))
	for _, item := range f.Items {
		if episode, ok := ProjectEpisode(item, channel); ok {
			episodes = append(episodes, episode)
		}
	}

	sort.SliceStable(episodes, func(i, j int) bool {
		return episodes[i].Published.Before(episodes[j].Published)
	})

	return &model.RssData{Channel: channel, Episodes: episodes}, true
}

// ProjectChannel requires a title and at least one link
func ProjectChannel(f *gofeed.Feed, feedURL string) (*model.Channel, bool) {
	if f == nil {
		return nil, false
	}

	title := strings.TrimSpace(f.Title)
	siteURL := firstNonEmpty(append([]string{f.Link}, f.Links...)...)
	if title == "" || (siteURL == "" && f.FeedLink == "") {
		return nil, false
	}

	channelID, ok := id.Channel(f.FeedLink, feedURL, siteURL)
	if !ok {
		return nil, false
	}

	if siteURL == "" {
		siteURL = f.FeedLink
	}

	channel := &model.Channel{
		ID:           channelID,
		Title:        title,
		FeedURL:      feedURL,
		SiteURL:      siteURL,
		Description:  strings.TrimSpace(f.Description),
		Tags:         Tags(f.Categories...),
		EpisodeCount: int64(len(f.Items)),
	}

	if len(f.Authors) > 0 && f.Authors[0] != nil {
		channel.Author = f.Authors[0].Name
	} else if f.ITunesExt != nil {
		channel.Author = f.ITunesExt.Author
	}

	if f.Image != nil && f.Image.URL != "" {
		channel.Image = f.Image.URL
	} else if f.ITunesExt != nil {
		channel.Image = f.ITunesExt.Image
	}

	return channel, true
}

// ProjectEpisode requires a title, a media enclosure, a link, a publish date and an identifier
func ProjectEpisode(item *gofeed.Item, channel *model.Channel) (*model.Episode, bool) {
	if item == nil || channel == nil {
		return nil, false
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		return nil, false
	}

	audioURL := ""
	for _, enclosure := range item.Enclosures {
		if enclosure != nil && enclosure.URL != "" {
			audioURL = enclosure.URL
			break
		}
	}
	if audioURL == "" {
		return nil, false
	}

	siteURL := firstNonEmpty(append([]string{item.Link}, item.Links...)...)
	if siteURL == "" {
		return nil, false
	}

	if item.PublishedParsed == nil {
		return nil, false
	}

	episodeID, ok := id.Episode(item.GUID, siteURL, title)
	if !ok {
		return nil, false
	}

	return &model.Episode{
		ID:          episodeID,
		ChannelID:   channel.ID,
		Title:       title,
		SiteURL:     siteURL,
		Published:   item.PublishedParsed.UTC(),
		Description: strings.TrimSpace(item.Description),
		Content:     item.Content,
		Tags:        Tags(item.Categories...),
		AudioURL:    audioURL,
	}, true
}

// Tags returns categories trimmed, deduplicated, sorted and joined with commas
func Tags(categories ...string) string {
	seen := make(map[string]struct{}, len(categories))
	tags := make([]string, 0, len(categories))

	for _, category := range categories {
		category = strings.TrimSpace(category)
		if category == "" {
			continue
		}

		if _, ok := seen[category]; ok {
			continue
		}

		seen[category] = struct{}{}
		tags = append(tags, category)
	}

	sort.Strings(tags)
	return strings.Join(tags, ",")
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}

	return ""
}
