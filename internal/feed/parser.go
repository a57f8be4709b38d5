package feed

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Preview is a feed as its publisher serves it.
type Preview struct {
	Title       string
	Description string
	SiteURL     string
	FeedURL     string
	Author      string
	// Podcast is true when any episode carries an audio enclosure or the
	// channel has iTunes metadata.
	Podcast  bool
	Episodes []Episode
}

type Episode struct {
	GUID          string
	Title         string
	Link          string
	EnclosureURL  string
	EnclosureType string
	Published     time.Time
	Duration      time.Duration
}

// AudioDetector decides whether an enclosure URL without a MIME type is
// audio.
type AudioDetector interface {
	IsAudio(url string) bool
}

type Parser struct {
	parser   *gofeed.Parser
	detector AudioDetector
}

func NewParser(detector AudioDetector) *Parser {
	return &Parser{
		parser:   gofeed.NewParser(),
		detector: detector,
	}
}

// Parse reads an RSS, Atom or JSON feed. Episodes come back newest first;
// undated items keep their document order after the dated ones.
func (p *Parser) Parse(reader io.Reader) (*Preview, error) {
	f, err := p.parser.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	out := &Preview{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		SiteURL:     f.Link,
		FeedURL:     f.FeedLink,
		Podcast:     f.ITunesExt != nil,
	}
	if f.ITunesExt != nil && f.ITunesExt.Author != "" {
		out.Author = f.ITunesExt.Author
	} else if len(f.Authors) > 0 && f.Authors[0] != nil {
		out.Author = f.Authors[0].Name
	}

	out.Episodes = make([]Episode, 0, len(f.Items))
	for _, item := range f.Items {
		ep := Episode{
			GUID:  item.GUID,
			Title: strings.TrimSpace(item.Title),
			Link:  item.Link,
		}
		if item.PublishedParsed != nil {
			ep.Published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			ep.Published = *item.UpdatedParsed
		}
		if enc := p.audioEnclosure(item); enc != nil {
			ep.EnclosureURL = enc.URL
			ep.EnclosureType = enc.Type
			out.Podcast = true
		}
		if item.ITunesExt != nil {
			ep.Duration = parseDuration(item.ITunesExt.Duration)
		}
		out.Episodes = append(out.Episodes, ep)
	}

	sort.SliceStable(out.Episodes, func(i, j int) bool {
		a, b := out.Episodes[i].Published, out.Episodes[j].Published
		if a.IsZero() || b.IsZero() {
			return !a.IsZero() && b.IsZero()
		}
		return a.After(b)
	})
	return out, nil
}

func (p *Parser) audioEnclosure(item *gofeed.Item) *gofeed.Enclosure {
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if strings.HasPrefix(enc.Type, "audio/") {
			return enc
		}
		if enc.Type == "" && p.detector != nil && p.detector.IsAudio(enc.URL) {
			return enc
		}
	}
	return nil
}

// parseDuration reads itunes:duration, which is either plain seconds or
// [hh:]mm:ss.
func parseDuration(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0
	}
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second
}
