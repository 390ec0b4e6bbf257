package feed

import (
	"encoding/xml"
	"strings"

	"github.com/pkg/errors"

	"github.com/librepod/librepod/pkg/model"
)

type opml struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    head
	Body    body
}

type head struct {
	XMLName xml.Name `xml:"head"`
	Title   string   `xml:"title"`
}

type body struct {
	XMLName  xml.Name  `xml:"body"`
	Outlines []outline `xml:"outline"`
}

type outline struct {
	Text     string    `xml:"text,attr"`
	Title    string    `xml:"title,attr,omitempty"`
	Type     string    `xml:"type,attr,omitempty"`
	XMLURL   string    `xml:"xmlUrl,attr,omitempty"`
	HTMLURL  string    `xml:"htmlUrl,attr,omitempty"`
	Outlines []outline `xml:"outline"`
}

// BuildOPML exports channels as an OPML subscription list
func BuildOPML(channels []*model.Channel) (string, error) {
	ou := make([]outline, 0, len(channels))
	for _, channel := range channels {
		ou = append(ou, outline{
			Text:    channel.Title,
			Title:   channel.Title,
			Type:    "rss",
			XMLURL:  channel.FeedURL,
			HTMLURL: channel.SiteURL,
		})
	}

	op := opml{Version: "1.0"}
	op.Head = head{Title: "Librepod feeds"}
	op.Body = body{Outlines: ou}

	out, err := xml.MarshalIndent(op, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal OPML")
	}

	return xml.Header + string(out), nil
}

// ParseOPML returns feed addresses from an OPML document, nested outlines included
func ParseOPML(data []byte) ([]string, error) {
	var op opml
	if err := xml.Unmarshal(data, &op); err != nil {
		return nil, errors.Wrap(err, "failed to parse OPML")
	}

	var (
		out  []string
		walk func([]outline)
	)

	walk = func(outlines []outline) {
		for _, o := range outlines {
			if url := strings.TrimSpace(o.XMLURL); url != "" {
				out = append(out, url)
			}
			walk(o.Outlines)
		}
	}

	walk(op.Body.Outlines)
	return out, nil
}
