package web

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestHandlerServesViewerPage(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	Handler()(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q, want text/html", ct)
	}

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}

	for _, id := range []string{
		"#graph-canvas",
		"#charge-slider",
		"#relevance-slider",
		"#weight-slider",
		"#apply-btn",
		"#refresh-btn",
		"#metrics-body",
		"#insights-body",
		"#toasts",
	} {
		if doc.Find(id).Length() != 1 {
			t.Errorf("page element %s missing", id)
		}
	}

	script := doc.Find("script").Text()
	for _, needle := range []string{"node_click", "link_click", "background_click", "drag_start", "adjust", "/ws"} {
		if !strings.Contains(script, needle) {
			t.Errorf("page script does not wire %q", needle)
		}
	}
}
