package middleware

import (
	"compress/gzip"
	"errors"
	"io"
	"net/http"
)

// DecompressRequest transparently decompresses gzipped request bodies.
func DecompressRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Encoding") != "gzip" {
			next.ServeHTTP(w, r)
			return
		}

		gzReader, err := gzip.NewReader(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("failed to read gzipped request"))
			return
		}
		defer gzReader.Close()

		r.Body = io.NopCloser(gzReader)
		r.Header.Del("Content-Encoding")
		r.Header.Del("Content-Length")
		r.ContentLength = -1

		next.ServeHTTP(w, r)
	})
}
