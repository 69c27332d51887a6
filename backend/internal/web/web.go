// Package web serves the viewer page. The page is a thin canvas renderer;
// every piece of state it shows arrives over the websocket.
package web

import (
	_ "embed"
	"net/http"
)

//go:embed page.html
var page []byte

// Handler serves the embedded viewer page
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	}
}
