package httpcache

import (
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// Response is a stored HTTP response
type Response struct {
	Body       []byte
	Header     http.Header
	Status     int
	URL        string
	Proto      string
	ProtoMajor int
	ProtoMinor int
}

// ReadResponse consumes and closes resp.Body
func ReadResponse(resp *http.Response) (*Response, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	out := &Response{
		Body:       body,
		Header:     resp.Header.Clone(),
		Status:     resp.StatusCode,
		Proto:      resp.Proto,
		ProtoMajor: resp.ProtoMajor,
		ProtoMinor: resp.ProtoMinor,
	}

	if out.Header == nil {
		out.Header = http.Header{}
	}

	if resp.Request != nil && resp.Request.URL != nil {
		out.URL = resp.Request.URL.String()
	}

	return out, nil
}

// MergeHeader overwrites the stored header fields with the ones from h
func (r *Response) MergeHeader(h http.Header) {
	if r.Header == nil {
		r.Header = http.Header{}
	}

	for key, values := range h {
		r.Header[key] = append([]string(nil), values...)
	}
}

func (r *Response) Clone() *Response {
	out := *r
	out.Body = append([]byte(nil), r.Body...)
	out.Header = r.Header.Clone()
	return &out
}
