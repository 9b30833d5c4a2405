package fetcher

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparsh2712/DataPipeline/internal/config"
)

func TestDecodeBody_Identity(t *testing.T) {
	out, err := decodeBody("", []byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, "plain", string(out))

	out, err = decodeBody("identity", []byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, "plain", string(out))
}

func TestDecodeBody_Deflate(t *testing.T) {
	payload := []byte(`{"ok":true}`)

	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	_, _ = zw.Write(payload)
	require.NoError(t, zw.Close())

	out, err := decodeBody("deflate", zbuf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, payload, out)

	var fbuf bytes.Buffer
	fw, err := flate.NewWriter(&fbuf, flate.DefaultCompression)
	require.NoError(t, err)
	_, _ = fw.Write(payload)
	require.NoError(t, fw.Close())

	out, err = decodeBody("deflate", fbuf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestDecodeBody_Chain(t *testing.T) {
	payload := []byte(`{"chain":1}`)

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write(payload)
	require.NoError(t, gw.Close())

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	_, _ = bw.Write(gz.Bytes())
	require.NoError(t, bw.Close())

	out, err := decodeBody("gzip, br", br.Bytes())
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestDecodeBody_Unsupported(t *testing.T) {
	_, err := decodeBody("compress", []byte("x"))
	assert.Error(t, err)
}

func TestDecodeBody_CorruptGzip(t *testing.T) {
	_, err := decodeBody("gzip", []byte("not gzip"))
	assert.Error(t, err)
}

func TestLoadHeaders(t *testing.T) {
	dir := t.TempDir()

	h, err := LoadHeaders(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultHeaders(), h)

	path := filepath.Join(dir, "headers.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Accept": "*/*", "DNT": "1"}`), 0o644))
	h, err = LoadHeaders(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Accept": "*/*", "DNT": "1"}, h)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"Accept": [1, 2]}`), 0o644))
	_, err = LoadHeaders(bad)
	require.Error(t, err)
	assert.True(t, config.IsConfigError(err))
}

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, looksLikeHTML([]byte("<!DOCTYPE html><html></html>")))
	assert.True(t, looksLikeHTML([]byte("<HTML><body>x</body></HTML>")))
	assert.False(t, looksLikeHTML([]byte(`{"html":"<b>no</b>"}`)))
	assert.Equal(t, "Access Denied", pageTitle([]byte("<html><title> Access Denied </title></html>")))
	assert.Equal(t, "untitled page", pageTitle([]byte("<html></html>")))
}
