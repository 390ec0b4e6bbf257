package handler

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/librepod/librepod/pkg/feed"
	"github.com/librepod/librepod/pkg/model"
	"github.com/librepod/librepod/services/update"
)

const maxOPMLSize = 1 << 20

type updaterService interface {
	Subscribe(ctx context.Context, feedURL string) (*model.Channel, error)
	RefreshAll(ctx context.Context) (*update.Report, error)
}

type storageService interface {
	ListChannels(ctx context.Context) ([]*model.Channel, error)
	GetChannel(ctx context.Context, channelID uuid.UUID) (*model.Channel, error)
	DeleteChannel(ctx context.Context, channelID uuid.UUID) error
	ChannelEpisodes(ctx context.Context, channelID uuid.UUID, limit int) ([]*model.Episode, error)
}

type handler struct {
	updater updaterService
	storage storageService
}

type addChannelRequest struct {
	RssLink string `json:"rss_link" binding:"required"`
}

func New(updater updaterService, storage storageService) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	h := handler{
		updater: updater,
		storage: storage,
	}

	r.GET("/api/ping", h.ping)

	r.GET("/api/channels", h.listChannels)
	r.POST("/api/channels", h.addChannel)
	r.GET("/api/channels/:id", h.getChannel)
	r.DELETE("/api/channels/:id", h.deleteChannel)

	r.GET("/api/opml", h.exportOPML)
	r.POST("/api/opml", h.importOPML)

	r.PUT("/api/feed/refresh", h.refresh)

	return r
}

func (h handler) ping(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h handler) listChannels(c *gin.Context) {
	channels, err := h.storage.ListChannels(c.Request.Context())
	if err != nil {
		c.JSON(internalError(err))
		return
	}

	if channels == nil {
		channels = []*model.Channel{}
	}

	c.JSON(http.StatusOK, channels)
}

func (h handler) addChannel(c *gin.Context) {
	req := &addChannelRequest{}

	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(badRequest(err))
		return
	}

	if !isFeedURL(req.RssLink) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rss_link"})
		return
	}

	channel, err := h.updater.Subscribe(c.Request.Context(), req.RssLink)
	if err == update.ErrRejected {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	} else if err != nil {
		log.WithError(err).WithField("url", req.RssLink).Error("failed to subscribe")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, channel)
}

func (h handler) getChannel(c *gin.Context) {
	channelID, ok := parseID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	channel, err := h.storage.GetChannel(ctx, channelID)
	if err == model.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	} else if err != nil {
		c.JSON(internalError(err))
		return
	}

	episodes, err := h.storage.ChannelEpisodes(ctx, channelID, model.DefaultEpisodesLimit)
	if err != nil {
		c.JSON(internalError(err))
		return
	}

	if episodes == nil {
		episodes = []*model.Episode{}
	}

	c.JSON(http.StatusOK, gin.H{
		"channel":  channel,
		"episodes": episodes,
	})
}

func (h handler) deleteChannel(c *gin.Context) {
	channelID, ok := parseID(c)
	if !ok {
		return
	}

	err := h.storage.DeleteChannel(c.Request.Context(), channelID)
	if err == model.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	} else if err != nil {
		c.JSON(internalError(err))
		return
	}

	c.Status(http.StatusOK)
}

func (h handler) exportOPML(c *gin.Context) {
	channels, err := h.storage.ListChannels(c.Request.Context())
	if err != nil {
		c.JSON(internalError(err))
		return
	}

	out, err := feed.BuildOPML(channels)
	if err != nil {
		c.JSON(internalError(err))
		return
	}

	c.Data(http.StatusOK, "text/x-opml; charset=UTF-8", []byte(out))
}

func (h handler) importOPML(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxOPMLSize))
	if err != nil {
		c.JSON(badRequest(err))
		return
	}

	urls, err := feed.ParseOPML(data)
	if err != nil {
		c.JSON(badRequest(err))
		return
	}

	var (
		ctx      = c.Request.Context()
		channels = make([]*model.Channel, 0, len(urls))
		failed   = gin.H{}
	)

	for _, feedURL := range urls {
		channel, err := h.updater.Subscribe(ctx, feedURL)
		if err != nil {
			log.WithError(err).WithField("url", feedURL).Warn("failed to import feed")
			failed[feedURL] = err.Error()
			continue
		}

		channels = append(channels, channel)
	}

	c.JSON(http.StatusOK, gin.H{
		"channels": channels,
		"errors":   failed,
	})
}

func (h handler) refresh(c *gin.Context) {
	report, err := h.updater.RefreshAll(c.Request.Context())
	if err != nil {
		c.JSON(internalError(err))
		return
	}

	if report.Results == nil {
		report.Results = []update.ChannelResult{}
	}

	c.JSON(http.StatusOK, report)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return uuid.Nil, false
	}

	return channelID, true
}

func isFeedURL(str string) bool {
	u, err := url.Parse(str)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func badRequest(err error) (int, interface{}) {
	return http.StatusBadRequest, gin.H{"error": err.Error()}
}

func internalError(err error) (int, interface{}) {
	log.WithError(err).Error("server error")
	return http.StatusInternalServerError, gin.H{"error": err.Error()}
}
