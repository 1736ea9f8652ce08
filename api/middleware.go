package api

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
)

var gzipReaderPool = sync.Pool{New: func() any { return new(gzip.Reader) }}

// GzipRequestMiddleware transparently decompresses gzip-encoded request
// bodies so handlers always see plain JSON. Requests with invalid gzip
// payloads are rejected with a 400 response.
func GzipRequestMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !hasGzipEncoding(req.Header.Get(echo.HeaderContentEncoding)) {
				return next(c)
			}

			gr := gzipReaderPool.Get().(*gzip.Reader)
			if err := gr.Reset(req.Body); err != nil {
				gzipReaderPool.Put(gr)
				_ = req.Body.Close()
				return echo.NewHTTPError(http.StatusBadRequest, "invalid gzip body")
			}

			body := req.Body
			req.Body = &pooledGzipBody{reader: gr, body: body}
			req.ContentLength = -1
			req.Header.Del(echo.HeaderContentEncoding)
			req.Header.Del(echo.HeaderContentLength)

			return next(c)
		}
	}
}

func hasGzipEncoding(header string) bool {
	for _, enc := range strings.Split(header, ",") {
		if strings.EqualFold(strings.TrimSpace(enc), "gzip") {
			return true
		}
	}
	return false
}

type pooledGzipBody struct {
	reader *gzip.Reader
	body   io.Closer
	closed bool
}

func (b *pooledGzipBody) Read(p []byte) (int, error) {
	return b.reader.Read(p)
}

func (b *pooledGzipBody) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	err := b.reader.Close()
	gzipReaderPool.Put(b.reader)
	if cerr := b.body.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
