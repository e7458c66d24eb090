// Package caption renders the short social-media caption and the longer
// description published with each article.
package caption

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/pevans/gamingnews/newsfeed"
)

const ellipsis = "..."

// Config controls caption and description lengths, measured in display
// cells.
type Config struct {
	MaxLength         int      `yaml:"max_length"`
	SummaryLength     int      `yaml:"summary_length"`
	DescriptionLength int      `yaml:"description_length"`
	Hashtags          []string `yaml:"hashtags"`
	HashtagCount      int      `yaml:"hashtag_count"`
}

// DefaultConfig returns the lengths and hashtags used for short-video
// captions.
func DefaultConfig() Config {
	return Config{
		MaxLength:         150,
		SummaryLength:     80,
		DescriptionLength: 200,
		Hashtags:          []string{"Gaming", "Videojuegos", "Noticias", "Gamer", "PlayStation", "Xbox", "Nintendo", "PC"},
		HashtagCount:      3,
	}
}

// Formatter renders captions. It is not safe for concurrent use because it
// draws hashtags from a shared random source.
type Formatter struct {
	cfg Config
	rng *rand.Rand
}

// New creates a formatter drawing hashtags from rng.
func New(cfg Config, rng *rand.Rand) *Formatter {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Formatter{cfg: cfg, rng: rng}
}

// Caption renders:
//
//	🎮 <title>
//
//	<summary, shortened>
//
//	👉 Leer más: <link>
//
//	#tag #tag #tag
//
// cut to MaxLength cells with a trailing "...".
func (f *Formatter) Caption(item newsfeed.NewsItem) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎮 %s\n\n", item.Title)
	fmt.Fprintf(&sb, "%s\n\n", Shorten(item.Summary, f.cfg.SummaryLength))
	fmt.Fprintf(&sb, "👉 Leer más: %s\n\n", item.Link)
	sb.WriteString(f.hashtags())

	return Truncate(sb.String(), f.cfg.MaxLength)
}

// Captions renders one caption per item, in order.
func (f *Formatter) Captions(items []newsfeed.NewsItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = f.Caption(item)
	}
	return out
}

// Description returns the summary shortened to DescriptionLength.
func (f *Formatter) Description(item newsfeed.NewsItem) string {
	return Shorten(item.Summary, f.cfg.DescriptionLength)
}

func (f *Formatter) hashtags() string {
	n := min(f.cfg.HashtagCount, len(f.cfg.Hashtags))
	if n <= 0 {
		return ""
	}

	tags := make([]string, 0, n)
	for _, i := range f.rng.Perm(len(f.cfg.Hashtags))[:n] {
		tags = append(tags, "#"+f.cfg.Hashtags[i])
	}
	return strings.Join(tags, " ")
}

// Shorten keeps the first width cells of s and appends "..." when anything
// was cut. A non-positive width leaves s unchanged.
func Shorten(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "") + ellipsis
}

// Truncate cuts s so that, including the trailing "...", it fits in width
// cells. A non-positive width leaves s unchanged.
func Truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, ellipsis)
}
