package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librepod/librepod/pkg/delta"
	"github.com/librepod/librepod/pkg/id"
	"github.com/librepod/librepod/pkg/model"
)

var (
	testCtx = context.TODO()
	t0      = time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
)

func getChannel(link string) *model.Channel {
	channelID, _ := id.Channel("", link+"feed.xml", link)
	return &model.Channel{
		ID:          channelID,
		Title:       "Channel " + link,
		FeedURL:     link + "feed.xml",
		SiteURL:     link,
		Author:      "Author",
		Description: "Description",
		Tags:        "a,b",
	}
}

func getEpisode(channel *model.Channel, guid string, offset time.Duration) *model.Episode {
	episodeID, _ := id.Episode(guid, "", "")
	return &model.Episode{
		ID:          episodeID,
		ChannelID:   channel.ID,
		Title:       "Episode " + guid,
		SiteURL:     channel.SiteURL + guid,
		Published:   t0.Add(offset),
		Description: "Description",
		Content:     "<p>Content</p>",
		AudioURL:    channel.SiteURL + guid + ".mp3",
	}
}

func insertEpisodes(t *testing.T, store Storage, episodes ...*model.Episode) int {
	tx, err := store.Begin(testCtx)
	require.NoError(t, err)

	count := 0
	for _, episode := range episodes {
		ok, err := tx.InsertEpisode(testCtx, episode)
		require.NoError(t, err)
		if ok {
			count++
		}
	}

	require.NoError(t, tx.Commit())
	return count
}

func runStorageTests(t *testing.T, createFn func(t *testing.T) Storage) {
	t.Run("AddChannel", makeTest(createFn, testAddChannel))
	t.Run("UpdateChannel", makeTest(createFn, testUpdateChannel))
	t.Run("ListChannels", makeTest(createFn, testListChannels))
	t.Run("DeleteChannel", makeTest(createFn, testDeleteChannel))
	t.Run("Episodes", makeTest(createFn, testEpisodes))
	t.Run("Rollback", makeTest(createFn, testRollback))
	t.Run("DeltaSync", makeTest(createFn, testDeltaSync))
}

func makeTest(createFn func(t *testing.T) Storage, testFn func(t *testing.T, storage Storage)) func(t *testing.T) {
	return func(t *testing.T) {
		storage := createFn(t)

		testFn(t, storage)

		err := storage.Close()
		require.Nil(t, err)
	}
}

func testAddChannel(t *testing.T, storage Storage) {
	channel := getChannel("https://a.example.com/")

	err := storage.AddChannel(testCtx, channel)
	require.NoError(t, err)

	err = storage.AddChannel(testCtx, channel)
	assert.Equal(t, model.ErrAlreadyExists, err)

	find, err := storage.GetChannel(testCtx, channel.ID)
	require.NoError(t, err)
	assert.Equal(t, channel, find)

	_, err = storage.GetChannel(testCtx, uuid.New())
	assert.Equal(t, model.ErrNotFound, err)
}

func testUpdateChannel(t *testing.T, storage Storage) {
	channel := getChannel("https://a.example.com/")
	require.NoError(t, storage.AddChannel(testCtx, channel))

	updated := *channel
	updated.Title = "New title"
	updated.Image = "https://a.example.com/cover.jpg"
	updated.FeedURL = "https://elsewhere.example.com/feed.xml"

	err := storage.UpdateChannel(testCtx, &updated)
	require.NoError(t, err)

	find, err := storage.GetChannel(testCtx, channel.ID)
	require.NoError(t, err)
	assert.Equal(t, "New title", find.Title)
	assert.Equal(t, "https://a.example.com/cover.jpg", find.Image)
	assert.Equal(t, channel.FeedURL, find.FeedURL)

	err = storage.UpdateChannel(testCtx, getChannel("https://missing.example.com/"))
	assert.Equal(t, model.ErrNotFound, err)
}

func testListChannels(t *testing.T, storage Storage) {
	list, err := storage.ListChannels(testCtx)
	require.NoError(t, err)
	assert.Empty(t, list)

	b := getChannel("https://b.example.com/")
	a := getChannel("https://a.example.com/")
	require.NoError(t, storage.AddChannel(testCtx, b))
	require.NoError(t, storage.AddChannel(testCtx, a))

	insertEpisodes(t, storage, getEpisode(b, "1", 0), getEpisode(b, "2", time.Hour))

	list, err = storage.ListChannels(testCtx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.EqualValues(t, 0, list[0].EpisodeCount)
	assert.Equal(t, b.ID, list[1].ID)
	assert.EqualValues(t, 2, list[1].EpisodeCount)

	refs, err := storage.ListChannelRefs(testCtx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.ChannelRef{a.Ref(), b.Ref()}, refs)
}

func testDeleteChannel(t *testing.T, storage Storage) {
	channel := getChannel("https://a.example.com/")
	require.NoError(t, storage.AddChannel(testCtx, channel))
	insertEpisodes(t, storage, getEpisode(channel, "1", 0))

	err := storage.DeleteChannel(testCtx, channel.ID)
	require.NoError(t, err)

	_, err = storage.GetChannel(testCtx, channel.ID)
	assert.Equal(t, model.ErrNotFound, err)

	episodes, err := storage.ChannelEpisodes(testCtx, channel.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, episodes)

	err = storage.DeleteChannel(testCtx, channel.ID)
	assert.Equal(t, model.ErrNotFound, err)
}

func testEpisodes(t *testing.T, storage Storage) {
	channel := getChannel("https://a.example.com/")
	require.NoError(t, storage.AddChannel(testCtx, channel))

	last, err := storage.LastPublished(testCtx, channel.ID)
	require.NoError(t, err)
	assert.Nil(t, last)

	first := getEpisode(channel, "1", 0)
	second := getEpisode(channel, "2", time.Hour)
	third := getEpisode(channel, "3", 2*time.Hour)

	assert.Equal(t, 3, insertEpisodes(t, storage, first, second, third))

	// Inserting the same episodes again is a no-op
	assert.Equal(t, 0, insertEpisodes(t, storage, first, second))

	last, err = storage.LastPublished(testCtx, channel.ID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, third.Published.Equal(*last))

	episodes, err := storage.ChannelEpisodes(testCtx, channel.ID, 2)
	require.NoError(t, err)
	require.Len(t, episodes, 2)
	assert.Equal(t, third.ID, episodes[0].ID)
	assert.Equal(t, second.ID, episodes[1].ID)
	assert.Equal(t, third.AudioURL, episodes[0].AudioURL)
	assert.Equal(t, third.Content, episodes[0].Content)
	assert.True(t, third.Published.Equal(episodes[0].Published))
	assert.Equal(t, channel.ID, episodes[0].ChannelID)
}

func testRollback(t *testing.T, storage Storage) {
	channel := getChannel("https://a.example.com/")
	require.NoError(t, storage.AddChannel(testCtx, channel))

	tx, err := storage.Begin(testCtx)
	require.NoError(t, err)

	ok, err := tx.InsertEpisode(testCtx, getEpisode(channel, "1", 0))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, tx.Rollback())

	last, err := storage.LastPublished(testCtx, channel.ID)
	require.NoError(t, err)
	assert.Nil(t, last)
}

func testDeltaSync(t *testing.T, storage Storage) {
	channel := getChannel("https://a.example.com/")
	require.NoError(t, storage.AddChannel(testCtx, channel))

	data := &model.RssData{
		Channel: channel,
		Episodes: []*model.Episode{
			getEpisode(channel, "1", 10*time.Second),
			getEpisode(channel, "2", 20*time.Second),
		},
	}

	inserted, err := delta.Sync(testCtx, storage, data)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	data.Episodes = append(data.Episodes,
		getEpisode(channel, "3", 20*time.Second),
		getEpisode(channel, "4", 30*time.Second),
	)

	// Only episodes strictly newer than the latest stored one are inserted
	inserted, err = delta.Sync(testCtx, storage, data)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	inserted, err = delta.Sync(testCtx, storage, data)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
}
