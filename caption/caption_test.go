package caption

import (
	"math/rand/v2"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/gamingnews/newsfeed"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// TestShorten verifies the summary cut
func TestShorten(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"short", "hola", 10, "hola"},
		{"exact", "abcde", 5, "abcde"},
		{"cut", "abcdefgh", 5, "abcde..."},
		{"multibyte", "ñañañaña", 3, "ñañ..."},
		{"disabled", "abc", 0, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Shorten(tt.in, tt.width))
		})
	}
}

// TestTruncate verifies the whole-caption cut fits the width
func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "abcdefg...", Truncate(strings.Repeat("abcdefghij", 3), 10))

	out := Truncate(strings.Repeat("🎮ñ", 100), 21)
	assert.True(t, utf8.ValidString(out))
	assert.LessOrEqual(t, runewidth.StringWidth(out), 21)
	assert.True(t, strings.HasSuffix(out, "..."))
}

// TestCaption_Layout verifies the caption template
func TestCaption_Layout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLength = 0
	f := New(cfg, seeded(1))

	item := newsfeed.NewNewsItem("Zelda", "Resumen corto", "https://example.com/z")
	got := f.Caption(item)

	parts := strings.Split(got, "\n\n")
	require.Len(t, parts, 4)
	assert.Equal(t, "🎮 Zelda", parts[0])
	assert.Equal(t, "Resumen corto", parts[1])
	assert.Equal(t, "👉 Leer más: https://example.com/z", parts[2])

	tags := strings.Fields(parts[3])
	require.Len(t, tags, 3)
	unique := map[string]bool{}
	for _, tag := range tags {
		require.True(t, strings.HasPrefix(tag, "#"))
		assert.Contains(t, cfg.Hashtags, strings.TrimPrefix(tag, "#"))
		unique[tag] = true
	}
	assert.Len(t, unique, 3, "hashtags are sampled without replacement")
}

// TestCaption_MaxLength verifies long captions are cut to the limit
func TestCaption_MaxLength(t *testing.T) {
	f := New(DefaultConfig(), seeded(2))
	item := newsfeed.NewNewsItem(strings.Repeat("Título largo ", 10), strings.Repeat("resumen ", 30), "https://example.com/noticia/1")

	got := f.Caption(item)
	assert.LessOrEqual(t, runewidth.StringWidth(got), 150)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.True(t, strings.HasPrefix(got, "🎮 Título largo"))
}

// TestCaption_Reproducible verifies a seeded source picks the same hashtags
func TestCaption_Reproducible(t *testing.T) {
	item := newsfeed.NewNewsItem("Zelda", "Resumen", "https://example.com/z")

	a := New(DefaultConfig(), seeded(5)).Captions([]newsfeed.NewsItem{item, item})
	b := New(DefaultConfig(), seeded(5)).Captions([]newsfeed.NewsItem{item, item})
	assert.Equal(t, a, b)
}

// TestDescription verifies the description cut
func TestDescription(t *testing.T) {
	f := New(DefaultConfig(), seeded(1))

	short := newsfeed.NewNewsItem("t", "breve", "l")
	assert.Equal(t, "breve", f.Description(short))

	long := newsfeed.NewNewsItem("t", strings.Repeat("x", 250), "l")
	assert.Equal(t, strings.Repeat("x", 200)+"...", f.Description(long))
}

// TestCaption_NoHashtags verifies an empty tag list
func TestCaption_NoHashtags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hashtags = nil
	cfg.MaxLength = 0

	got := New(cfg, seeded(1)).Caption(newsfeed.NewNewsItem("T", "S", "L"))
	assert.Equal(t, "🎮 T\n\nS\n\n👉 Leer más: L\n\n", got)
}
