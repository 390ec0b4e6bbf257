package update

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

type Status string

const (
	// StatusOK means the feed changed and new episodes (possibly none) were merged
	StatusOK = Status("ok")
	// StatusUnchanged means the feed didn't change since the previous refresh
	StatusUnchanged = Status("unchanged")
	// StatusRejected means the feed document can't produce a channel
	StatusRejected = Status("rejected")
	// StatusFailed is a fetch, parse or persistence error
	StatusFailed = Status("failed")
)

// ChannelResult is the outcome of refreshing a single channel
type ChannelResult struct {
	ChannelID uuid.UUID
	FeedURL   string
	Status    Status
	Inserted  int
	Err       error
}

func (r ChannelResult) Success() bool {
	return r.Status == StatusOK || r.Status == StatusUnchanged
}

func (r ChannelResult) MarshalJSON() ([]byte, error) {
	out := struct {
		ChannelID uuid.UUID `json:"channel_id"`
		FeedURL   string    `json:"rss_link"`
		Status    Status    `json:"status"`
		Inserted  int       `json:"inserted"`
		Error     string    `json:"error,omitempty"`
	}{
		ChannelID: r.ChannelID,
		FeedURL:   r.FeedURL,
		Status:    r.Status,
		Inserted:  r.Inserted,
	}

	if r.Err != nil {
		out.Error = r.Err.Error()
	}

	return json.Marshal(out)
}

// Report collects per channel results of a refresh run
type Report struct {
	Results []ChannelResult `json:"results"`
}

func (r *Report) Succeeded() int {
	count := 0
	for _, res := range r.Results {
		if res.Success() {
			count++
		}
	}
	return count
}

func (r *Report) Failed() int {
	return len(r.Results) - r.Succeeded()
}

func (r *Report) Inserted() int {
	count := 0
	for _, res := range r.Results {
		count += res.Inserted
	}
	return count
}

// Err combines errors of all failed channels, nil if every channel succeeded
func (r *Report) Err() error {
	var result *multierror.Error

	for _, res := range r.Results {
		if res.Success() {
			continue
		}

		err := res.Err
		if err == nil {
			err = errors.New(string(res.Status))
		}

		result = multierror.Append(result, errors.Wrapf(err, "%s", res.FeedURL))
	}

	return result.ErrorOrNil()
}
