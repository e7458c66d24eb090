package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/gamingnews/logger"
	"github.com/pevans/gamingnews/newsfeed"
	"github.com/pevans/gamingnews/scraper"
)

const listingPage = `<html><body>
<article class="noticia">
	<h2 class="titular"><a href="/noticia/1/n.zelda">Nuevo Zelda anunciado</a></h2>
	<p class="texto">Resumen del listado</p>
</article>
<article class="noticia">
	<h2 class="titular"><a href="/noticia/2/n.halo">Halo vuelve por sorpresa</a></h2>
	<img src="/img/halo-listado.jpg">
</article>
</body></html>`

const detailZelda = `<html><head>
	<meta property="og:image" content="/img/zelda-og.jpg">
</head><body>
	<div class="entradilla">Entradilla completa de Zelda</div>
</body></html>`

const detailHalo = `<html><head>
	<meta property="og:description" content="Descripción social de Halo">
</head><body>
	<article>
		<h1>Halo vuelve por sorpresa</h1>
		<p>Microsoft ha confirmado hoy el regreso de la saga con una nueva entrega que llegará el próximo año a consolas y PC.</p>
		<p>El estudio asegura que la campaña será la más ambiciosa de la serie, con un mundo abierto mucho más grande.</p>
	</article>
</body></html>`

// testSite serves a small fake news site.
type testSite struct {
	*httptest.Server
	extractor *scraper.Extractor
	fetcher   *Fetcher
	debugDir  string
}

// Test helper: start a fake site with listing, detail and homepage routes
func setupTestSite(t *testing.T) *testSite {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/noticias/videojuegos", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage)
	})
	mux.HandleFunc("/noticias/videojuegos/2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/noticia/1/n.zelda", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, detailZelda)
	})
	mux.HandleFunc("/noticia/2/n.halo", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, detailHalo)
	})
	mux.HandleFunc("/img/halo-listado.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("JPEGDATA"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ext, err := scraper.NewExtractor(srv.URL, scraper.DefaultSelectors(), logger.NewNop())
	require.NoError(t, err)

	debugDir := filepath.Join(t.TempDir(), "debug")
	fetcher := NewFetcher(FetcherConfig{DebugDir: debugDir}, NewRand(1), NoSleep, logger.NewNop())

	return &testSite{Server: srv, extractor: ext, fetcher: fetcher, debugDir: debugDir}
}

// TestPageURL verifies pagination URLs
func TestPageURL(t *testing.T) {
	base := "https://vandal.elespanol.com/noticias/videojuegos"
	assert.Equal(t, base, PageURL(base, 1))
	assert.Equal(t, base+"/2", PageURL(base, 2))
	assert.Equal(t, base+"/5", PageURL(base+"/", 5))
}

// TestListingCrawler_FetchPage verifies extraction and snapshots
func TestListingCrawler_FetchPage(t *testing.T) {
	site := setupTestSite(t)
	crawler := NewListingCrawler(site.fetcher, site.extractor, site.URL+"/noticias/videojuegos", nil)

	items := crawler.FetchPage(context.Background(), 1)
	require.Len(t, items, 2)
	assert.Equal(t, site.URL+"/noticia/1/n.zelda", items[0].Link)
	assert.Equal(t, "Resumen del listado", items[0].Summary)
	assert.Equal(t, newsfeed.NoSummary, items[1].Summary)

	assert.FileExists(t, filepath.Join(site.debugDir, "debug_page_1.html"))
}

// TestListingCrawler_FailureYieldsEmpty verifies fetch errors are swallowed
func TestListingCrawler_FailureYieldsEmpty(t *testing.T) {
	site := setupTestSite(t)
	crawler := NewListingCrawler(site.fetcher, site.extractor, site.URL+"/noticias/videojuegos", nil)

	assert.Empty(t, crawler.FetchPage(context.Background(), 2))
	assert.Empty(t, crawler.FetchPage(context.Background(), 3))
}

// TestDetailEnricher_EnrichAll verifies summaries and images from detail
// pages, keeping identity fields
func TestDetailEnricher_EnrichAll(t *testing.T) {
	site := setupTestSite(t)
	crawler := NewListingCrawler(site.fetcher, site.extractor, site.URL+"/noticias/videojuegos", nil)
	items := crawler.FetchPage(context.Background(), 1)
	require.Len(t, items, 2)

	rec := &sleepRecorder{}
	pacer := NewPacer(0, 0, NewRand(1), rec.Sleep, nil)
	enricher := NewDetailEnricher(site.fetcher, site.extractor, pacer, logger.NewNop())

	enriched, err := enricher.EnrichAll(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, enriched, 2)
	assert.Len(t, rec.delays, 2, "one wait per detail fetch")

	zelda := enriched[0]
	assert.Equal(t, items[0].Title, zelda.Title)
	assert.Equal(t, items[0].Link, zelda.Link)
	assert.Equal(t, items[0].ID, zelda.ID)
	assert.Equal(t, "Entradilla completa de Zelda", zelda.Summary)
	require.NotNil(t, zelda.ImageURL)
	assert.Equal(t, site.URL+"/img/zelda-og.jpg", *zelda.ImageURL)

	halo := enriched[1]
	assert.Equal(t, "Descripción social de Halo", halo.Summary, "readability excerpt replaces the sentinel")
	require.NotNil(t, halo.ImageURL)
	assert.Equal(t, site.URL+"/img/halo-listado.jpg", *halo.ImageURL, "listing image is kept")

	assert.FileExists(t, filepath.Join(site.debugDir, "debug_article_"+zelda.ID[:8]+".html"))
	assert.Equal(t, "Resumen del listado", items[0].Summary, "input slice untouched")
}

// TestDetailEnricher_FailureLeavesItem verifies a missing detail page is
// not fatal
func TestDetailEnricher_FailureLeavesItem(t *testing.T) {
	site := setupTestSite(t)
	enricher := NewDetailEnricher(site.fetcher, site.extractor, nil, nil)

	item := newsfeed.NewNewsItem("Perdida", "resumen", site.URL+"/noticia/404/n.perdida")
	assert.Equal(t, item, enricher.Enrich(context.Background(), item))
}

// TestHomepageScanner_ScanDocument verifies link filtering and dedupe
func TestHomepageScanner_ScanDocument(t *testing.T) {
	site := setupTestSite(t)
	scanner := NewHomepageScanner(site.fetcher, site.extractor, site.URL, nil)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<body>
		<a href="/noticia/1/n.zelda">Nuevo Zelda anunciado hoy</a>
		<a href="/noticia/1/n.zelda">Nuevo Zelda anunciado hoy</a>
		<a href="/noticia/2/n.corta">Corta</a>
		<a href="/juegos/ficha">Ficha de un juego cualquiera</a>
		<a href="https://other.com/noticias/3">Noticia externa bastante larga</a>
		<a href="/noticia/4/n.cuarta">Cuarta noticia suficientemente larga</a>
	</body>`))
	require.NoError(t, err)

	items := scanner.ScanDocument(doc, 0)
	require.Len(t, items, 3)
	assert.Equal(t, "Nuevo Zelda anunciado hoy", items[0].Title)
	assert.Equal(t, site.URL+"/noticia/1/n.zelda", items[0].Link)
	assert.Empty(t, items[0].Summary)
	assert.Equal(t, "https://other.com/noticias/3", items[1].Link)

	limited := scanner.ScanDocument(doc, 1)
	assert.Len(t, limited, 1)
}

// TestHomepageScanner_Scan verifies the homepage is fetched and snapshotted
func TestHomepageScanner_Scan(t *testing.T) {
	site := setupTestSite(t)
	scanner := NewHomepageScanner(site.fetcher, site.extractor, site.URL+"/noticias/videojuegos", nil)

	items, err := scanner.Scan(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Halo vuelve por sorpresa", items[1].Title)
	assert.Equal(t, site.URL+"/noticia/2/n.halo", items[1].Link)
	assert.FileExists(t, filepath.Join(site.debugDir, "debug_homepage.html"))

	broken := NewHomepageScanner(site.fetcher, site.extractor, site.URL+"/noticias/videojuegos/2", nil)
	_, err = broken.Scan(context.Background(), 5)
	assert.Error(t, err)
}

// TestImageDownloader_FetchImage verifies the file name and content
func TestImageDownloader_FetchImage(t *testing.T) {
	site := setupTestSite(t)
	d := NewImageDownloader(site.fetcher, nil)

	item := newsfeed.NewNewsItem("Halo vuelve: ¡por sorpresa!", "s", site.URL+"/noticia/2/n.halo")
	item.ImageURL = newsfeed.StringPtr(site.URL + "/img/halo-listado.jpg")

	dir := t.TempDir()
	path, err := d.FetchImage(context.Background(), item, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "image_Halo_vuelve_por_sorpresa.jpg"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "JPEGDATA", string(data))

	_, err = d.FetchImage(context.Background(), newsfeed.NewNewsItem("t", "s", "l"), dir)
	assert.Error(t, err)
}

// TestImageFileName verifies sanitizing and extension handling
func TestImageFileName(t *testing.T) {
	tests := []struct {
		name  string
		title string
		url   string
		want  string
	}{
		{"plain", "Zelda nuevo", "https://x.com/a.png", "image_Zelda_nuevo.png"},
		{"query string", "Zelda", "https://x.com/a.jpeg?w=300", "image_Zelda.jpeg"},
		{"unknown ext", "Zelda", "https://x.com/a.webp", "image_Zelda.jpg"},
		{"no ext", "Zelda", "https://x.com/imagen", "image_Zelda.jpg"},
		{"keeps case", "Zelda", "https://x.com/a.GIF", "image_Zelda.GIF"},
		{"accents kept", "Año: ¿qué pasó?", "https://x.com/a.jpg", "image_Año_qué_pasó.jpg"},
		{"truncated", strings.Repeat("a", 60), "https://x.com/a.jpg", "image_" + strings.Repeat("a", 50) + ".jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ImageFileName(tt.title, tt.url))
		})
	}
}
