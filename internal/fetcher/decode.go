package fetcher

import (
	"bytes"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/rotisserie/eris"
)

// decodeBody reverses the Content-Encoding chain of a response body.
// Codings are undone in reverse order of application.
func decodeBody(contentEncoding string, body []byte) ([]byte, error) {
	codings := strings.Split(contentEncoding, ",")
	out := body
	for i := len(codings) - 1; i >= 0; i-- {
		coding := strings.ToLower(strings.TrimSpace(codings[i]))
		var err error
		switch coding {
		case "", "identity":
			continue
		case "br":
			out, err = io.ReadAll(brotli.NewReader(bytes.NewReader(out)))
		case "gzip", "x-gzip":
			out, err = gunzip(out)
		case "zstd":
			out, err = unzstd(out)
		case "deflate":
			out, err = inflate(out)
		default:
			return nil, eris.Errorf("fetcher: unsupported content-encoding %q", coding)
		}
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: decode %s", coding)
		}
	}
	return out, nil
}

func gunzip(b []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer r.Close() //nolint:errcheck
	return io.ReadAll(r)
}

func unzstd(b []byte) ([]byte, error) {
	d, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return d.DecodeAll(b, nil)
}

// inflate accepts both zlib-wrapped and raw deflate streams; servers send either.
func inflate(b []byte) ([]byte, error) {
	if r, err := zlib.NewReader(bytes.NewReader(b)); err == nil {
		defer r.Close() //nolint:errcheck
		if out, err := io.ReadAll(r); err == nil {
			return out, nil
		}
	}
	r := flate.NewReader(bytes.NewReader(b))
	defer r.Close() //nolint:errcheck
	return io.ReadAll(r)
}
