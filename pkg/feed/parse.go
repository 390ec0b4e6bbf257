package feed

import (
	"bytes"

	"github.com/mmcdole/gofeed"
	"github.com/pkg/errors"
)

// Parse decodes an RSS, Atom or JSON feed document
func Parse(body []byte) (*gofeed.Feed, error) {
	f, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse feed")
	}

	return f, nil
}
