// Package fetch downloads feeds honoring HTTP caching rules.
package fetch

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/librepod/librepod/pkg/cache"
	"github.com/librepod/librepod/pkg/httpcache"
	"github.com/librepod/librepod/pkg/model"
)

// Fetcher performs conditional GET requests backed by a cache store.
// Get-decide-set is not atomic per address: two concurrent fetches of the same
// address may both reach the origin, the last write wins.
type Fetcher struct {
	client    *http.Client
	cache     cache.Store
	userAgent string
	now       func() time.Time
}

type fetcherOption func(*Fetcher)

func WithTimeout(timeout time.Duration) fetcherOption {
	return func(f *Fetcher) {
		f.client.Timeout = timeout
	}
}

func WithUserAgent(userAgent string) fetcherOption {
	return func(f *Fetcher) {
		f.userAgent = userAgent
	}
}

func WithClient(client *http.Client) fetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

func WithClock(now func() time.Time) fetcherOption {
	return func(f *Fetcher) {
		f.now = now
	}
}

func New(store cache.Store, opts ...fetcherOption) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: model.DefaultFetchTimeout},
		cache:     store,
		userAgent: model.DefaultUserAgent,
		now:       time.Now,
	}

	for _, fn := range opts {
		fn(f)
	}

	return f
}

// Fetch returns the body at address.
// Hit means the body is unchanged since the previous successful fetch.
func (f *Fetcher) Fetch(ctx context.Context, address string) (*httpcache.Result, error) {
	logger := log.WithField("url", address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid feed address %q", address)
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	entry, err := f.cache.Get(ctx, address)
	if err == cache.ErrNotFound {
		return f.fetch(ctx, address, req)
	} else if err != nil {
		logger.WithError(err).Warn("failed to query cache, fetching from origin")
		return f.fetch(ctx, address, req)
	}

	before := entry.Policy.BeforeRequest(req, f.now())
	if before.Fresh {
		logger.Debug("serving fresh response from cache")

		resp := entry.Response.Clone()
		resp.Header = before.ResponseHeader
		return httpcache.HitResult(resp), nil
	}

	req.Header = before.RequestHeader

	requestTime := f.now()
	resp, err := f.do(req)
	if err != nil {
		return nil, err
	}
	responseTime := f.now()

	if resp.Status >= http.StatusInternalServerError {
		logger.Warnf("origin responded with %d, serving cached response", resp.Status)
		return httpcache.HitResult(entry.Response.Clone()), nil
	}

	after := entry.Policy.AfterResponse(req, resp, requestTime, responseTime)
	if !after.Modified {
		logger.Debug("origin confirmed cached response")

		updated := entry.Response.Clone()
		updated.MergeHeader(after.Header)
		f.store(ctx, address, &cache.Entry{Policy: after.Policy, Response: updated})

		return httpcache.HitResult(updated), nil
	}

	if !isSuccess(resp.Status) {
		return nil, errors.Errorf("failed to fetch %q: unexpected status %d", address, resp.Status)
	}

	logger.Debug("origin returned new content")

	if after.Policy.IsStorable() {
		f.store(ctx, address, &cache.Entry{Policy: after.Policy, Response: resp})
	} else {
		// The previous body must not be served again
		logger.Debug("response is not storable, dropping cached entry")
		f.forget(ctx, address)
	}

	return httpcache.MissResult(resp), nil
}

// Forget drops the cached response for address, the next Fetch of it is a Miss.
// Callers use it when the body of a Miss could not be processed.
func (f *Fetcher) Forget(ctx context.Context, address string) error {
	if err := f.cache.Delete(ctx, address); err != nil {
		return errors.Wrapf(err, "failed to drop cached response of %q", address)
	}

	return nil
}

func (f *Fetcher) fetch(ctx context.Context, address string, req *http.Request) (*httpcache.Result, error) {
	requestTime := f.now()
	resp, err := f.do(req)
	if err != nil {
		return nil, err
	}
	responseTime := f.now()

	if !isSuccess(resp.Status) {
		return nil, errors.Errorf("failed to fetch %q: unexpected status %d", address, resp.Status)
	}

	policy := httpcache.New(req, resp, requestTime, responseTime)
	if policy.IsStorable() {
		f.store(ctx, address, &cache.Entry{Policy: policy, Response: resp})
	} else {
		log.WithField("url", address).Debug("response is not storable")
	}

	return httpcache.MissResult(resp), nil
}

func (f *Fetcher) do(req *http.Request) (*httpcache.Response, error) {
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %q", req.URL)
	}

	return httpcache.ReadResponse(resp)
}

func (f *Fetcher) store(ctx context.Context, address string, entry *cache.Entry) {
	if err := f.cache.Set(ctx, address, entry); err != nil {
		log.WithError(err).WithField("url", address).Error("failed to update cache")
	}
}

func (f *Fetcher) forget(ctx context.Context, address string) {
	if err := f.Forget(ctx, address); err != nil {
		log.WithError(err).WithField("url", address).Error("failed to update cache")
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
