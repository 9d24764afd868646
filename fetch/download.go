package fetch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/teris-io/shortid"
	pb "gopkg.in/cheggaaa/pb.v1"

	"github.com/vesseltrace/tilecat/gfw"
)

// Result is the outcome of a single thumbnail download.
type Result struct {
	URL  string
	Path string
	Err  error
}

// DownloadAll fetches every URL into dir with a small worker pool and a
// progress bar. Duplicate URLs are fetched once; a failed download is
// reported per URL and does not abort the batch.
func (c *Client) DownloadAll(ctx context.Context, urls []string, dir string, workers int) ([]Result, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}
	urls = dedupe(urls)

	batchID, _ := shortid.Generate()
	c.logger().Infof("batch %s: downloading %d file(s) to %s", batchID, len(urls), dir)
	bar := pb.StartNew(len(urls))

	jobs := make(chan string)
	out := make(chan Result)
	wg := sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rawURL := range jobs {
				path, err := c.downloadOne(ctx, rawURL, dir)
				bar.Increment()
				out <- Result{URL: rawURL, Path: path, Err: err}
			}
		}()
	}
	go func() {
		for _, rawURL := range urls {
			jobs <- rawURL
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]Result, 0, len(urls))
	for result := range out {
		if result.Err != nil {
			c.logger().Warnf("download failed for %s: %v", result.URL, result.Err)
		}
		results = append(results, result)
	}
	bar.Finish()
	return results, nil
}

func (c *Client) downloadOne(ctx context.Context, rawURL, dir string) (string, error) {
	body, contentType, err := c.get(ctx, rawURL, "")
	if err != nil {
		return "", err
	}
	name := SafeFilename(gfw.FeatureIDFromURL(rawURL)) + ExtensionForContentType(contentType)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// SafeFilename replaces characters that are not allowed in filenames on
// Windows and avoids trailing dots and spaces.
func SafeFilename(name string) string {
	const forbidden = `<>:"/\|?*`
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(forbidden, r) {
			return '_'
		}
		return r
	}, name)
	cleaned = strings.TrimRight(strings.TrimSpace(cleaned), ".")
	if cleaned == "" {
		return "image"
	}
	return cleaned
}

// ExtensionForContentType maps a Content-Type header to a file extension,
// falling back to .bin for anything unrecognized.
func ExtensionForContentType(contentType string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return ".png"
	case strings.Contains(contentType, "jpeg"), strings.Contains(contentType, "jpg"):
		return ".jpg"
	case strings.Contains(contentType, "webp"):
		return ".webp"
	}
	return ".bin"
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	deduped := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		deduped = append(deduped, u)
	}
	return deduped
}
