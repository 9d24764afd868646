package gfw

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"
)

const (
	ThumbnailBase    = "https://gateway.api.globalfishingwatch.org/v3/thumbnail/"
	DefaultDataset   = "public-global-sentinel2-thumbnails:v3.0"
	matchedFilterKey = "filters[0]"
)

// ThumbnailURLs builds one thumbnail URL per feature that has an id,
// preserving feature order.
func ThumbnailURLs(features []Feature, dataset string) []string {
	if dataset == "" {
		dataset = DefaultDataset
	}
	query := url.Values{"dataset": []string{dataset}}.Encode()
	urls := make([]string, 0, len(features))
	for _, feature := range features {
		id := feature.FeatureID()
		if id == "" {
			continue
		}
		urls = append(urls, ThumbnailBase+id+"?"+query)
	}
	return urls
}

// AdjustMatchedFilter overrides the matched filter of a tile URL.
// "true" and "false" set filters[0] to matched IN ('<choice>'), "any" removes
// the filter, and an empty choice leaves the URL unchanged.
func AdjustMatchedFilter(rawURL, choice string) (string, error) {
	switch choice {
	case "":
		return rawURL, nil
	case "true", "false", "any":
	default:
		return "", fmt.Errorf("invalid matched choice %q, want true, false or any", choice)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	query := u.Query()
	query.Del(matchedFilterKey)
	if choice != "any" {
		query.Set(matchedFilterKey, fmt.Sprintf("matched IN ('%s')", choice))
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// TileURL fills a {z}/{x}/{y} URL template for a tile.
func TileURL(template string, tile maptile.Tile) string {
	s := strings.ReplaceAll(template, "{x}", strconv.Itoa(int(tile.X)))
	s = strings.ReplaceAll(s, "{y}", strconv.Itoa(int(tile.Y)))
	return strings.ReplaceAll(s, "{z}", strconv.Itoa(int(tile.Z)))
}

// FeatureIDFromURL extracts the feature id from a thumbnail URL: the path
// tail after /thumbnail/, or the last path element as a fallback.
func FeatureIDFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	// u.Path is already unescaped
	if _, tail, ok := strings.Cut(u.Path, "/thumbnail/"); ok {
		return tail
	}
	return u.Path[strings.LastIndex(u.Path, "/")+1:]
}

// LoadURLList reads a JSON array of URL strings.
func LoadURLList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, fmt.Errorf("%s should contain a JSON array of strings: %w", path, err)
	}
	return urls, nil
}

// SaveURLList writes a JSON array of URL strings, indented like the
// documents the API tooling exchanges.
func SaveURLList(path string, urls []string) error {
	data, err := json.MarshalIndent(urls, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
