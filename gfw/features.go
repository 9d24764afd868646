// Package gfw holds the Global Fishing Watch API conventions: the shapes of
// its JSON documents and the way its tile and thumbnail URLs are built.
package gfw

import (
	"fmt"
	"os"
	"strconv"

	"github.com/perimeterx/marshmallow"
)

// Feature is one entry of a features document. Only the id matters for URL
// generation; properties are kept for callers that want more.
type Feature struct {
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties"`
}

// FeatureID is the identifier used in thumbnail URLs: properties.id when
// present, the top-level id otherwise.
func (f Feature) FeatureID() string {
	if id := stringify(f.Properties["id"]); id != "" {
		return id
	}
	return f.ID
}

func stringify(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

type featuresDocument struct {
	Features []Feature `json:"features"`
	Data     []Feature `json:"data"`
}

// LoadFeatures reads a features document from disk.
func LoadFeatures(path string) ([]Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	features, err := ParseFeatures(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return features, nil
}

// ParseFeatures accepts the document shapes the API returns in the wild:
// {"main": {"features": [...]}}, {"features": [...]} and {"data": [...]},
// in that order of precedence.
func ParseFeatures(data []byte) ([]Feature, error) {
	var doc featuresDocument
	rest, err := marshmallow.Unmarshal(data, &doc, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return nil, err
	}
	if main, ok := rest["main"].(map[string]any); ok {
		if rawFeatures, ok := main["features"].([]any); ok {
			return featuresFromAny(rawFeatures), nil
		}
	}
	if len(doc.Features) > 0 {
		return doc.Features, nil
	}
	return doc.Data, nil
}

func featuresFromAny(raw []any) []Feature {
	features := make([]Feature, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		feature := Feature{ID: stringify(m["id"])}
		if properties, ok := m["properties"].(map[string]any); ok {
			feature.Properties = properties
		}
		features = append(features, feature)
	}
	return features
}
