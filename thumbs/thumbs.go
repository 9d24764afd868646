// Package thumbs extracts PNG images from the JSON blobs some thumbnail
// endpoints return instead of raw image bytes. A blob is a JSON array of
// entries, each carrying a filename and a base64 data URL.
package thumbs

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Converter turns downloaded .bin blobs into image files.
type Converter struct {
	Log *logrus.Logger
}

type entry struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

// ConvertDir converts every .bin file in dir, writing the extracted images
// to outDir. It returns the number of images written. A file that fails to
// convert is logged and skipped.
func (c *Converter) ConvertDir(dir, outDir string) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.bin"))
	if err != nil {
		return 0, err
	}
	sort.Strings(paths)
	if err := os.MkdirAll(outDir, os.ModePerm); err != nil {
		return 0, err
	}

	written := 0
	for _, path := range paths {
		n, err := c.ConvertFile(path, outDir)
		if err != nil {
			c.logger().Warnf("skipping %s: %v", path, err)
			continue
		}
		c.logger().Infof("extracted %d image(s) from %s", n, filepath.Base(path))
		written += n
	}
	return written, nil
}

// ConvertFile extracts the images of a single blob into outDir and returns
// how many were written.
func (c *Converter) ConvertFile(path, outDir string) (int, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var entries []entry
	if err := json.Unmarshal(blob, &entries); err != nil {
		return 0, fmt.Errorf("not a thumbnail blob: %w", err)
	}

	written := 0
	for i, e := range entries {
		name, image, err := decodeEntry(e)
		if err != nil {
			return written, fmt.Errorf("entry %d: %w", i, err)
		}
		if err := os.WriteFile(filepath.Join(outDir, name), image, 0o644); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// decodeEntry strips the data URL prefix and decodes the payload. The name
// is reduced to its base and forced to a .png suffix.
func decodeEntry(e entry) (string, []byte, error) {
	name := filepath.Base(e.Name)
	if name == "." || name == "/" || name == "" {
		name = "image.png"
	}
	if !strings.HasSuffix(name, ".png") {
		name += ".png"
	}

	payload := e.Data
	if _, after, found := strings.Cut(payload, ","); found {
		payload = after
	}
	image, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return name, image, nil
}

func (c *Converter) logger() *logrus.Logger {
	if c.Log != nil {
		return c.Log
	}
	return logrus.StandardLogger()
}
