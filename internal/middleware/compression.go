package middleware

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// Compression gzips JSON responses. PNG frames are already compressed and
// the websocket upgrade must not be wrapped.
func Compression() gin.HandlerFunc {
	return gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedExtensions([]string{".png"}),
		gzip.WithExcludedPaths([]string{"/ws"}),
	)
}
