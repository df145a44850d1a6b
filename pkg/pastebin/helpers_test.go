package pastebin

import (
	"net/http"
	"net/http/httptest"
)

func newHeaderServer(userAgent *string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*userAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
}
