package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/librepod/librepod/pkg/delta"
	"github.com/librepod/librepod/pkg/model"
)

const (
	CurrentVersion = 1
)

// Storage persists channels and their episodes
type Storage interface {
	delta.Store

	Close() error

	// ListChannelRefs returns every known channel and the address to refresh it from
	ListChannelRefs(ctx context.Context) ([]model.ChannelRef, error)

	// AddChannel returns model.ErrAlreadyExists if a channel with the same ID is stored
	AddChannel(ctx context.Context, channel *model.Channel) error

	// UpdateChannel refreshes channel metadata, the feed address is kept
	UpdateChannel(ctx context.Context, channel *model.Channel) error

	// GetChannel returns model.ErrNotFound if there is no such channel
	GetChannel(ctx context.Context, channelID uuid.UUID) (*model.Channel, error)

	// ListChannels returns all channels ordered by title, with episode counts
	ListChannels(ctx context.Context) ([]*model.Channel, error)

	// DeleteChannel deletes channel and all its episodes
	DeleteChannel(ctx context.Context, channelID uuid.UUID) error

	// ChannelEpisodes returns up to limit newest episodes of a channel
	ChannelEpisodes(ctx context.Context, channelID uuid.UUID, limit int) ([]*model.Episode, error)
}
