package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Channel is a podcast source built from a feed document
type Channel struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	FeedURL      string    `json:"rss_link"`
	SiteURL      string    `json:"website_link"`
	Author       string    `json:"author,omitempty"`
	Description  string    `json:"description,omitempty"`
	Tags         string    `json:"tags,omitempty"` // Sorted, comma separated
	Image        string    `json:"image,omitempty"`
	EpisodeCount int64     `json:"num_episodes"`
}

// Ref returns the part of the channel needed to refresh it
func (c *Channel) Ref() ChannelRef {
	return ChannelRef{ID: c.ID, FeedURL: c.FeedURL}
}

type Episode struct {
	ID          uuid.UUID `json:"id"`
	ChannelID   uuid.UUID `json:"channel_id"`
	Title       string    `json:"title"`
	SiteURL     string    `json:"website_link"`
	Published   time.Time `json:"-"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content,omitempty"`
	Tags        string    `json:"tags,omitempty"`
	AudioURL    string    `json:"audio_link"`
}

// MarshalJSON encodes the publish date as microseconds since the Unix epoch
func (e Episode) MarshalJSON() ([]byte, error) {
	type episode Episode
	return json.Marshal(struct {
		episode
		Published Timestamp `json:"published"`
	}{episode(e), Timestamp(e.Published)})
}

// ChannelRef identifies a known channel and the address its feed is fetched from
type ChannelRef struct {
	ID      uuid.UUID
	FeedURL string
}

// RssData is the result of projecting a single fetched feed.
// Episodes are sorted by publish date, oldest first.
type RssData struct {
	Channel  *Channel
	Episodes []*Episode
}
