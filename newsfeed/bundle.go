package newsfeed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pevans/gamingnews/logger"
)

// File and directory names inside a bundle.
const (
	NewsFile     = "news.json"
	CaptionsFile = "all_captions.txt"
	CaptionFile  = "caption.txt"
	DescFile     = "description.txt"
	itemDirFmt   = "noticia_%d"
	maxVersions  = 10000
)

// ErrMismatchedCaptions is returned when items and captions differ in length.
var ErrMismatchedCaptions = errors.New("items and captions must have the same length")

// ImageFetcher downloads an item's image into dir and returns the written
// path.
type ImageFetcher interface {
	FetchImage(ctx context.Context, item NewsItem, dir string) (string, error)
}

// Describer renders the description written next to each item's title.
type Describer interface {
	Description(item NewsItem) string
}

// Bundle describes one materialized run.
type Bundle struct {
	DateKey      string
	Version      int
	Dir          string
	NewsPath     string
	CaptionsPath string
	Items        []NewsItem
	Captions     []string
}

// BundleWriter materializes items into versioned per-day directories under
// a content directory.
type BundleWriter struct {
	contentDir string
	describer  Describer
	images     ImageFetcher
	log        logger.Logger
}

// NewBundleWriter creates a writer rooted at contentDir, creating it if it
// doesn't exist. images may be nil, in which case no images are written.
func NewBundleWriter(contentDir string, describer Describer, images ImageFetcher, log logger.Logger) (*BundleWriter, error) {
	if err := os.MkdirAll(contentDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create content directory: %w", err)
	}

	return &BundleWriter{
		contentDir: contentDir,
		describer:  describer,
		images:     images,
		log:        logger.OrNop(log),
	}, nil
}

// ContentDir returns the directory bundles are created under.
func (bw *BundleWriter) ContentDir() string {
	return bw.contentDir
}

// BundleDirName returns the directory name for a date and version. Version
// 0 has no suffix; version n is "<date>_V<n>".
func BundleDirName(dateKey string, version int) string {
	if version == 0 {
		return dateKey
	}
	return fmt.Sprintf("%s_V%d", dateKey, version)
}

// AllocateDir creates the first unused bundle directory for dateKey. It
// uses os.Mkdir so an existing directory is never reused, even when another
// process created it between probes.
func AllocateDir(contentDir, dateKey string) (string, int, error) {
	for version := 0; version < maxVersions; version++ {
		dir := filepath.Join(contentDir, BundleDirName(dateKey, version))
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, version, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return "", 0, fmt.Errorf("failed to create bundle directory: %w", err)
	}

	return "", 0, fmt.Errorf("no free bundle directory for %s after %d versions", dateKey, maxVersions)
}

// Write materializes items and their captions (same length, same order)
// into a fresh directory for dateKey.
func (bw *BundleWriter) Write(ctx context.Context, dateKey string, items []NewsItem, captions []string) (*Bundle, error) {
	if len(items) != len(captions) {
		return nil, fmt.Errorf("%w: %d items, %d captions", ErrMismatchedCaptions, len(items), len(captions))
	}

	dir, version, err := AllocateDir(bw.contentDir, dateKey)
	if err != nil {
		return nil, err
	}

	bundle := &Bundle{
		DateKey:      dateKey,
		Version:      version,
		Dir:          dir,
		NewsPath:     filepath.Join(dir, NewsFile),
		CaptionsPath: filepath.Join(dir, CaptionsFile),
		Items:        items,
		Captions:     captions,
	}

	if err := writeNewsJSON(bundle.NewsPath, items); err != nil {
		return nil, err
	}
	bw.log.Info("News saved", logger.String("path", bundle.NewsPath))

	for i, item := range items {
		if err := bw.writeItem(ctx, dir, i, item, captions[i]); err != nil {
			return nil, err
		}
	}

	if err := writeCaptions(bundle.CaptionsPath, captions); err != nil {
		return nil, err
	}
	bw.log.Info("Captions saved", logger.String("path", bundle.CaptionsPath))

	return bundle, nil
}

func (bw *BundleWriter) writeItem(ctx context.Context, dir string, i int, item NewsItem, caption string) error {
	itemDir := filepath.Join(dir, fmt.Sprintf(itemDirFmt, i+1))
	if err := os.MkdirAll(itemDir, 0o755); err != nil {
		return fmt.Errorf("failed to create item directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(itemDir, CaptionFile), []byte(caption), 0o644); err != nil {
		return fmt.Errorf("failed to write caption: %w", err)
	}

	desc := item.Summary
	if bw.describer != nil {
		desc = bw.describer.Description(item)
	}
	body := fmt.Sprintf("Título: %s\n\nDescripción: %s", item.Title, desc)
	if err := os.WriteFile(filepath.Join(itemDir, DescFile), []byte(body), 0o644); err != nil {
		return fmt.Errorf("failed to write description: %w", err)
	}

	if !item.HasImage() {
		bw.log.Warn("No image URL for item", logger.String("title", item.Title))
		return nil
	}
	if bw.images == nil {
		return nil
	}

	// Image failures are not fatal for the bundle.
	path, err := bw.images.FetchImage(ctx, item, itemDir)
	if err != nil {
		bw.log.Error("Failed to download image",
			logger.String("title", item.Title),
			logger.String("url", *item.ImageURL),
			logger.Err(err),
		)
		return nil
	}
	bw.log.Info("Image saved", logger.Int("item", i+1), logger.String("path", path))

	return nil
}

func writeNewsJSON(path string, items []NewsItem) error {
	if items == nil {
		items = []NewsItem{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("failed to marshal news items: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write news items: %w", err)
	}

	return nil
}

func writeCaptions(path string, captions []string) error {
	var sb strings.Builder
	for i, caption := range captions {
		fmt.Fprintf(&sb, "=== CAPTION %d ===\n%s\n\n", i+1, caption)
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write captions: %w", err)
	}

	return nil
}

// ReadNews loads the news.json of an existing bundle directory.
func ReadNews(dir string) ([]NewsItem, error) {
	data, err := os.ReadFile(filepath.Join(dir, NewsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read news items: %w", err)
	}

	var items []NewsItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal news items: %w", err)
	}

	return items, nil
}
