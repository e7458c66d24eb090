package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Locator is one extraction strategy: it reads a single value out of a
// fragment, reporting false when it finds nothing usable. Locators never
// modify the fragment.
type Locator interface {
	Locate(s *goquery.Selection) (string, bool)
}

// Text reads the whitespace-normalized text of the first element matching
// Selector. An empty Selector reads the fragment itself.
type Text struct {
	Selector string
}

// Locate implements Locator.
func (l Text) Locate(s *goquery.Selection) (string, bool) {
	_, text, ok := l.Match(s)
	return text, ok
}

// Match is Locate that also returns the element the text was read from.
func (l Text) Match(s *goquery.Selection) (*goquery.Selection, string, bool) {
	el := first(s, l.Selector)
	if el.Length() == 0 {
		return nil, "", false
	}
	text := normalizeSpace(el.Text())
	return el, text, text != ""
}

// Attr reads the first present, non-empty attribute out of Attrs on the
// first element matching Selector. An empty Selector reads the fragment
// itself.
type Attr struct {
	Selector string
	Attrs    []string
}

// Locate implements Locator.
func (l Attr) Locate(s *goquery.Selection) (string, bool) {
	_, v, ok := l.Match(s)
	return v, ok
}

// Match is Locate that also returns the element the attribute was read from.
func (l Attr) Match(s *goquery.Selection) (*goquery.Selection, string, bool) {
	el := first(s, l.Selector)
	if el.Length() == 0 {
		return nil, "", false
	}
	for _, name := range l.Attrs {
		if v, ok := el.Attr(name); ok {
			if v = strings.TrimSpace(v); v != "" {
				return el, v, true
			}
		}
	}
	return nil, "", false
}

// Matcher is a Locator that can report the element its value came from.
type Matcher interface {
	Locator
	Match(s *goquery.Selection) (*goquery.Selection, string, bool)
}

func first(s *goquery.Selection, selector string) *goquery.Selection {
	if selector == "" {
		return s.First()
	}
	return s.Find(selector).First()
}

// Chain is an ordered list of locators evaluated until one succeeds.
type Chain []Locator

// First returns the value of the first locator that succeeds.
func (c Chain) First(s *goquery.Selection) (string, bool) {
	for _, l := range c {
		if v, ok := l.Locate(s); ok {
			return v, true
		}
	}
	return "", false
}

// FirstMatch is First that also returns the matched element. Locators that
// are not Matchers report a nil element.
func (c Chain) FirstMatch(s *goquery.Selection) (*goquery.Selection, string, bool) {
	for _, l := range c {
		if m, ok := l.(Matcher); ok {
			if el, v, ok := m.Match(s); ok {
				return el, v, true
			}
			continue
		}
		if v, ok := l.Locate(s); ok {
			return nil, v, true
		}
	}
	return nil, "", false
}

// TextChain builds a chain of Text locators, one per selector.
func TextChain(selectors ...string) Chain {
	c := make(Chain, 0, len(selectors))
	for _, sel := range selectors {
		c = append(c, Text{Selector: sel})
	}
	return c
}

// AttrChain builds a chain of Attr locators sharing the same attribute list.
func AttrChain(attrs []string, selectors ...string) Chain {
	c := make(Chain, 0, len(selectors))
	for _, sel := range selectors {
		c = append(c, Attr{Selector: sel, Attrs: attrs})
	}
	return c
}

// ListConfig defines how article fragments are located on a listing page.
type ListConfig struct {
	// ArticleBlocks are tried in order; the first with any match wins.
	ArticleBlocks []string
	// HeadingLinks selects heading anchors for the document fallback.
	HeadingLinks string
	// ArticleLinkMarkers must all appear (case-insensitively) in a heading
	// link's href for its block to be promoted to a fragment.
	ArticleLinkMarkers []string
}

// ArticleConfig holds one chain per extracted field.
type ArticleConfig struct {
	Title   Chain
	Summary Chain
	// Link runs against the element that supplied the title, never the
	// whole fragment, so a title is always paired with its own href.
	Link Chain
	Image   Chain
	Author  Chain
	Date    Chain
}

// DetailConfig holds the chains applied to an article's own page.
type DetailConfig struct {
	Summary Chain
	Image   Chain
}

// Selectors is the declarative, YAML-overridable form of the listing,
// article and detail configs.
type Selectors struct {
	ArticleBlocks      []string `yaml:"article_blocks"`
	HeadingLinks       string   `yaml:"heading_links"`
	ArticleLinkMarkers []string `yaml:"article_link_markers"`

	Title      []string `yaml:"title"`
	Summary    []string `yaml:"summary"`
	Image      []string `yaml:"image"`
	ImageAttrs []string `yaml:"image_attrs"`
	Author     []string `yaml:"author"`
	Date       []string `yaml:"date"`

	DetailSummary    []string `yaml:"detail_summary"`
	DetailImage      []string `yaml:"detail_image"`
	DetailImageAttrs []string `yaml:"detail_image_attrs"`
}

// Meta tags used as last strategies on detail pages.
const (
	metaDescription = `meta[name="description"]`
	metaOGImage     = `meta[property="og:image"]`
)

// DefaultSelectors returns the selectors known to match the news site's
// past and current markup, most specific first.
func DefaultSelectors() Selectors {
	return Selectors{
		ArticleBlocks: []string{
			"article.noticia", "div.article", "div.card", ".cardNoticia",
			".noticia", "div.item", "article", ".article-item",
		},
		HeadingLinks:       "h2 a, h1 a, h3 a",
		ArticleLinkMarkers: []string{"noticia", "/n."},

		Title:      []string{"h2.titular a", "h2 a", "h1 a", "h3 a", ".title a", "a.title", "a[title]"},
		Summary:    []string{"p.texto", "p.description", ".summary", ".excerpt", "p:not(.meta)", "p"},
		Image:      []string{"img", ".image img", ".thumbnail img", "figure img"},
		ImageAttrs: []string{"src", "data-src", "data-lazy-src", "data-srcset"},
		Author:     []string{".autor", ".author", ".meta .author", "span.author"},
		Date:       []string{".fecha", ".date", ".meta .date", "time", "span.date"},

		DetailSummary:    []string{"div.entradilla", ".article-summary", ".summary", ".intro", ".excerpt"},
		DetailImage:      []string{"div.imagen img", ".article-featured-image img", ".featured-image img", "article img", ".content img"},
		DetailImageAttrs: []string{"data-src", "src"},
	}
}

// ListConfig builds the listing config.
func (s Selectors) ListConfig() ListConfig {
	return ListConfig{
		ArticleBlocks:      s.ArticleBlocks,
		HeadingLinks:       s.HeadingLinks,
		ArticleLinkMarkers: s.ArticleLinkMarkers,
	}
}

// ArticleConfig builds the per-field chains. The title anchor supplies the
// href; a title element that is not itself a link falls back to the first
// anchor inside it.
func (s Selectors) ArticleConfig() ArticleConfig {
	return ArticleConfig{
		Title:   TextChain(s.Title...),
		Summary: TextChain(s.Summary...),
		Link:    AttrChain([]string{"href"}, "", "a[href]"),
		Image:   AttrChain(s.ImageAttrs, s.Image...),
		Author:  TextChain(s.Author...),
		Date:    TextChain(s.Date...),
	}
}

// DetailConfig builds the detail-page chains, ending with the page's meta
// description and Open Graph image.
func (s Selectors) DetailConfig() DetailConfig {
	summary := TextChain(s.DetailSummary...)
	summary = append(summary, Attr{Selector: metaDescription, Attrs: []string{"content"}})

	image := AttrChain(s.DetailImageAttrs, s.DetailImage...)
	image = append(image, Attr{Selector: metaOGImage, Attrs: []string{"content"}})

	return DetailConfig{Summary: summary, Image: image}
}

// normalizeSpace collapses runs of whitespace into single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
