package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pevans/gamingnews/logger"
	"github.com/pevans/gamingnews/newsfeed"
)

const maxImageTitle = 50

// ImageDownloader saves article images next to their captions.
type ImageDownloader struct {
	fetcher *Fetcher
	log     logger.Logger
}

// NewImageDownloader creates a downloader.
func NewImageDownloader(fetcher *Fetcher, log logger.Logger) *ImageDownloader {
	return &ImageDownloader{fetcher: fetcher, log: logger.OrNop(log)}
}

// FetchImage downloads item's image into dir and returns the file path.
func (d *ImageDownloader) FetchImage(ctx context.Context, item newsfeed.NewsItem, dir string) (string, error) {
	if !item.HasImage() {
		return "", fmt.Errorf("item %q has no image", item.Title)
	}

	data, err := d.fetcher.Download(ctx, *item.ImageURL)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}

	path := filepath.Join(dir, ImageFileName(item.Title, *item.ImageURL))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	d.log.Debug("Image downloaded", logger.String("path", path), logger.Int("bytes", len(data)))
	return path, nil
}

// ImageFileName returns "image_<title>.<ext>". The title keeps letters,
// digits, underscores and hyphens, with spaces turned into underscores, cut
// to 50 characters. Extensions other than jpg, jpeg, png and gif become jpg.
func ImageFileName(title, imageURL string) string {
	var sb strings.Builder
	n := 0
	for _, r := range title {
		if n == maxImageTitle {
			break
		}
		switch {
		case r == ' ':
			r = '_'
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '-':
		case unicode.IsSpace(r):
		default:
			continue
		}
		sb.WriteRune(r)
		n++
	}

	return fmt.Sprintf("image_%s.%s", sb.String(), imageExt(imageURL))
}

func imageExt(imageURL string) string {
	ext := imageURL[strings.LastIndex(imageURL, ".")+1:]
	if i := strings.IndexByte(ext, '?'); i >= 0 {
		ext = ext[:i]
	}

	switch strings.ToLower(ext) {
	case "jpg", "jpeg", "png", "gif":
		return ext
	}
	return "jpg"
}
