package thumbs

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBlob(t *testing.T, dir, name string, entries []entry) string {
	t.Helper()
	blob, err := json.Marshal(entries)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, blob, 0o644))
	return path
}

func dataURL(payload []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)
}

func quietConverter() *Converter {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Converter{Log: log}
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	path := writeBlob(t, dir, "thumb.bin", []entry{
		{Name: "scene-1.png", Data: dataURL([]byte("first"))},
		{Name: "nested/scene-2", Data: dataURL([]byte("second"))},
		{Name: "", Data: base64.StdEncoding.EncodeToString([]byte("bare"))},
	})

	n, err := quietConverter().ConvertFile(path, outDir)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	first, err := os.ReadFile(filepath.Join(outDir, "scene-1.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), first)

	// path components are stripped and the extension is normalized
	second, err := os.ReadFile(filepath.Join(outDir, "scene-2.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), second)

	// a missing name and a payload without a data URL prefix still work
	bare, err := os.ReadFile(filepath.Join(outDir, "image.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("bare"), bare)
}

func TestConvertFile_badBase64(t *testing.T) {
	dir := t.TempDir()
	path := writeBlob(t, dir, "thumb.bin", []entry{
		{Name: "broken.png", Data: "data:image/png;base64,%%%"},
	})

	_, err := quietConverter().ConvertFile(path, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.png")
}

func TestConvertDir(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	writeBlob(t, dir, "a.bin", []entry{{Name: "a.png", Data: dataURL([]byte("a"))}})
	writeBlob(t, dir, "b.bin", []entry{{Name: "b.png", Data: dataURL([]byte("b"))}})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "not-a-blob.bin"), []byte("png bytes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.png"), []byte("x"), 0o644))

	n, err := quietConverter().ConvertDir(dir, outDir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	names, err := filepath.Glob(filepath.Join(outDir, "*.png"))
	require.NoError(t, err)
	assert.Len(t, names, 2)
}
