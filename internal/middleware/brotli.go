package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// Responses shorter than this go out uncompressed; the brotli header
// overhead is not worth it below ~1KB.
const brotliMinLength = 1024

// Brotli compresses responses for clients that advertise br support.
// SSE and WebSocket traffic passes through untouched: both break when the
// response is buffered or wrapped.
func Brotli() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isStreaming(c) || !clientAcceptsBr(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		w := &brWriter{
			ResponseWriter: c.Writer,
			br:             brotli.NewWriterLevel(c.Writer, brotli.DefaultCompression),
		}
		defer func() {
			if err := w.drainPlain(); err != nil {
				_ = c.Error(err)
			}
			if w.encoding {
				w.br.Close()
			}
		}()

		c.Writer = w
		c.Next()
	}
}

// brWriter buffers the response until it knows whether compression pays
// off. Once the buffered body crosses the threshold it commits to brotli
// and sets the encoding headers exactly once.
type brWriter struct {
	gin.ResponseWriter
	br       *brotli.Writer
	pending  []byte
	commit   sync.Once
	encoding bool
}

func (w *brWriter) Write(data []byte) (int, error) {
	w.pending = append(w.pending, data...)
	if len(w.pending) < brotliMinLength {
		return len(data), nil
	}

	w.commit.Do(func() {
		w.encoding = true
		w.ResponseWriter.Header().Set("Content-Encoding", "br")
		w.ResponseWriter.Header().Del("Content-Length")
	})
	n, err := w.br.Write(w.pending)
	w.pending = w.pending[:0]
	return n, err
}

func (w *brWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Flush satisfies streaming handlers that got wrapped anyway: the pending
// bytes go out as plain text so the client is never stuck waiting on a
// partial compression block.
func (w *brWriter) Flush() {
	if len(w.pending) > 0 {
		_, _ = w.ResponseWriter.Write(w.pending)
		w.pending = w.pending[:0]
	}
	w.ResponseWriter.Flush()
}

// drainPlain writes out a body that never crossed the threshold.
func (w *brWriter) drainPlain() error {
	if len(w.pending) == 0 {
		return nil
	}
	_, err := w.ResponseWriter.Write(w.pending)
	w.pending = w.pending[:0]
	return err
}

func isStreaming(c *gin.Context) bool {
	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		return true
	}
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

func clientAcceptsBr(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		if strings.TrimSpace(strings.ToLower(enc)) == "br" {
			return true
		}
	}
	return false
}
