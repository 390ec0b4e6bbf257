// Package httpcache implements RFC 7234 freshness and revalidation rules for a private cache.
package httpcache

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pquerna/cachecontrol"
	"github.com/pquerna/cachecontrol/cacheobject"
)

// Header fields that a 304 response must not overwrite in the stored response
var excludedFromUpdate = map[string]struct{}{
	"Content-Length":    {},
	"Content-Encoding":  {},
	"Transfer-Encoding": {},
	"Content-Range":     {},
}

// Status codes that may be cached with heuristic freshness (RFC 7231 section 6.1)
var heuristicStatuses = map[int]struct{}{
	200: {}, 203: {}, 204: {}, 206: {}, 300: {}, 301: {}, 404: {}, 405: {}, 410: {}, 414: {}, 501: {},
}

// Policy keeps everything needed to decide whether a stored response can be reused.
// All fields are exported so the policy can be serialized together with the response.
type Policy struct {
	Method         string
	URL            string
	RequestHeader  http.Header
	Status         int
	ResponseHeader http.Header
	RequestTime    time.Time
	ResponseTime   time.Time
}

// BeforeRequest is the outcome of evaluating a stored response against a new request.
// When Fresh is set, ResponseHeader holds the headers to serve with the stored body.
// Otherwise RequestHeader holds the request headers decorated with validators.
type BeforeRequest struct {
	Fresh          bool
	ResponseHeader http.Header
	RequestHeader  http.Header
}

// AfterResponse is the outcome of a revalidation exchange.
// When Modified is false the stored body is still valid and only Header must be merged into it.
type AfterResponse struct {
	Modified bool
	Policy   *Policy
	Header   http.Header
}

// New computes a policy from a request/response exchange
func New(req *http.Request, resp *Response, requestTime, responseTime time.Time) *Policy {
	return &Policy{
		Method:         req.Method,
		URL:            req.URL.String(),
		RequestHeader:  req.Header.Clone(),
		Status:         resp.Status,
		ResponseHeader: resp.Header.Clone(),
		RequestTime:    requestTime,
		ResponseTime:   responseTime,
	}
}

// IsStorable returns true if the response may be stored and carries something that makes reuse
// possible: either an explicit lifetime or a validator.
func (p *Policy) IsStorable() bool {
	req, err := p.request()
	if err != nil {
		return false
	}

	resp := &http.Response{StatusCode: p.Status, Header: p.ResponseHeader, Request: req}

	reasons, _, err := cachecontrol.CachableResponse(req, resp, cachecontrol.Options{PrivateCache: true})
	if err != nil || len(reasons) > 0 {
		return false
	}

	cc := p.responseDirectives()
	if cc.NoStore {
		return false
	}

	if cc.MaxAge >= 0 || p.ResponseHeader.Get("Expires") != "" {
		return true
	}

	return p.ResponseHeader.Get("ETag") != "" || p.ResponseHeader.Get("Last-Modified") != ""
}

// BeforeRequest decides whether the stored response satisfies req at time now
func (p *Policy) BeforeRequest(req *http.Request, now time.Time) BeforeRequest {
	if p.satisfiesWithoutRevalidation(req, now) {
		header := p.ResponseHeader.Clone()
		if header == nil {
			header = http.Header{}
		}
		header.Set("Age", strconv.FormatInt(int64(p.Age(now)/time.Second), 10))
		return BeforeRequest{Fresh: true, ResponseHeader: header}
	}

	return BeforeRequest{RequestHeader: p.revalidationHeaders(req)}
}

// AfterResponse evaluates the origin's answer to a (conditional) request
func (p *Policy) AfterResponse(req *http.Request, resp *Response, requestTime, responseTime time.Time) AfterResponse {
	if resp.Status != http.StatusNotModified {
		return AfterResponse{
			Modified: true,
			Policy:   New(req, resp, requestTime, responseTime),
			Header:   resp.Header.Clone(),
		}
	}

	merged := p.ResponseHeader.Clone()
	if merged == nil {
		merged = http.Header{}
	}

	for key, values := range resp.Header {
		if _, ok := excludedFromUpdate[key]; ok {
			continue
		}
		merged[key] = append([]string(nil), values...)
	}

	updated := &Policy{
		Method:         req.Method,
		URL:            req.URL.String(),
		RequestHeader:  req.Header.Clone(),
		Status:         p.Status,
		ResponseHeader: merged,
		RequestTime:    requestTime,
		ResponseTime:   responseTime,
	}

	return AfterResponse{Modified: false, Policy: updated, Header: merged}
}

// Age computes the current age of the stored response (RFC 7234 section 4.2.3)
func (p *Policy) Age(now time.Time) time.Duration {
	apparentAge := p.ResponseTime.Sub(p.date())
	if apparentAge < 0 {
		apparentAge = 0
	}

	responseDelay := p.ResponseTime.Sub(p.RequestTime)
	if responseDelay < 0 {
		responseDelay = 0
	}

	correctedAge := p.ageHeader() + responseDelay
	initialAge := apparentAge
	if correctedAge > initialAge {
		initialAge = correctedAge
	}

	resident := now.Sub(p.ResponseTime)
	if resident < 0 {
		resident = 0
	}

	return initialAge + resident
}

// Lifetime returns the freshness lifetime of the stored response (RFC 7234 section 4.2.1)
func (p *Policy) Lifetime() time.Duration {
	cc := p.responseDirectives()
	if cc.NoCachePresent || cc.NoStore {
		return 0
	}

	if cc.MaxAge >= 0 {
		return time.Duration(cc.MaxAge) * time.Second
	}

	if value := p.ResponseHeader.Get("Expires"); value != "" {
		expires, err := http.ParseTime(value)
		if err != nil {
			// Invalid dates, like "0", represent a time in the past
			return 0
		}

		lifetime := expires.Sub(p.date())
		if lifetime < 0 {
			return 0
		}
		return lifetime
	}

	if _, ok := heuristicStatuses[p.Status]; ok {
		if value := p.ResponseHeader.Get("Last-Modified"); value != "" {
			lastModified, err := http.ParseTime(value)
			if err == nil {
				if since := p.date().Sub(lastModified); since > 0 {
					return since / 10
				}
			}
		}
	}

	return 0
}

func (p *Policy) satisfiesWithoutRevalidation(req *http.Request, now time.Time) bool {
	if req.Method != p.Method || req.URL.String() != p.URL {
		return false
	}

	if !p.varyMatches(req) {
		return false
	}

	reqCC := requestDirectives(req.Header)
	if reqCC.NoCache || strings.Contains(strings.ToLower(req.Header.Get("Pragma")), "no-cache") {
		return false
	}

	age := p.Age(now)
	if reqCC.MaxAge >= 0 && age > time.Duration(reqCC.MaxAge)*time.Second {
		return false
	}

	lifetime := p.Lifetime()
	if reqCC.MinFresh >= 0 && lifetime-age < time.Duration(reqCC.MinFresh)*time.Second {
		return false
	}

	return age < lifetime
}

func (p *Policy) revalidationHeaders(req *http.Request) http.Header {
	header := req.Header.Clone()
	if header == nil {
		header = http.Header{}
	}

	// A response selected by different request headers can't be revalidated
	if !p.varyMatches(req) {
		header.Del("If-None-Match")
		header.Del("If-Modified-Since")
		return header
	}

	if etag := p.ResponseHeader.Get("ETag"); etag != "" {
		header.Set("If-None-Match", etag)
	}

	if lastModified := p.ResponseHeader.Get("Last-Modified"); lastModified != "" {
		header.Set("If-Modified-Since", lastModified)
	}

	return header
}

func (p *Policy) varyMatches(req *http.Request) bool {
	for _, value := range p.ResponseHeader.Values("Vary") {
		for _, name := range strings.Split(value, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}

			if name == "*" {
				return false
			}

			if req.Header.Get(name) != p.RequestHeader.Get(name) {
				return false
			}
		}
	}

	return true
}

func (p *Policy) date() time.Time {
	if value := p.ResponseHeader.Get("Date"); value != "" {
		if date, err := http.ParseTime(value); err == nil {
			return date
		}
	}

	return p.ResponseTime
}

func (p *Policy) ageHeader() time.Duration {
	value := p.ResponseHeader.Get("Age")
	if value == "" {
		return 0
	}

	seconds, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || seconds < 0 {
		return 0
	}

	return time.Duration(seconds) * time.Second
}

func (p *Policy) responseDirectives() *cacheobject.ResponseCacheDirectives {
	value := p.ResponseHeader.Get("Cache-Control")
	if value == "" {
		return &cacheobject.ResponseCacheDirectives{MaxAge: -1, SMaxAge: -1}
	}

	cc, err := cacheobject.ParseResponseCacheControl(value)
	if err != nil || cc == nil {
		return &cacheobject.ResponseCacheDirectives{MaxAge: -1, SMaxAge: -1}
	}

	return cc
}

func (p *Policy) request() (*http.Request, error) {
	u, err := url.Parse(p.URL)
	if err != nil {
		return nil, err
	}

	return &http.Request{Method: p.Method, URL: u, Header: p.RequestHeader}, nil
}

func requestDirectives(h http.Header) *cacheobject.RequestCacheDirectives {
	value := h.Get("Cache-Control")
	if value == "" {
		return &cacheobject.RequestCacheDirectives{MaxAge: -1, MinFresh: -1}
	}

	cc, err := cacheobject.ParseRequestCacheControl(value)
	if err != nil || cc == nil {
		return &cacheobject.RequestCacheDirectives{MaxAge: -1, MinFresh: -1}
	}

	return cc
}
