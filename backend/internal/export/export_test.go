package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/CrossDebate/app/backend/internal/scene"
)

func sampleFrame() scene.Frame {
	return scene.Frame{
		Nodes: []scene.NodeElem{
			{ID: "n1", Label: "Claim", Kind: "thought", Relevance: 0.8, Radius: 13, Color: "#8b5cf6", X: 10, Y: -5},
			{ID: "n2", Label: "Claim", Kind: "thought", Relevance: 0.4, Radius: 9, Color: "#8b5cf6", X: -20, Y: 15},
			{ID: "n3", Label: "Reply", Kind: "model_response", Relevance: 0.5, Radius: 10, Color: "#f59e0b", X: 0, Y: 40},
		},
		Links: []scene.LinkElem{
			{Key: "e1:n1|n2", HyperedgeID: "e1", Source: "n1", Target: "n2", Weight: 0.7, Width: 3.1},
			{Key: "e1:n1|n3", HyperedgeID: "e1", Source: "n1", Target: "n3", Weight: 0.7, Width: 3.1},
		},
	}
}

func TestRenderHTMLFixedLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, sampleFrame()); err != nil {
		t.Fatalf("RenderHTML returned error: %v", err)
	}
	html := buf.String()

	if !strings.Contains(html, `"layout":"none"`) {
		t.Error("exported chart does not pin the layout to the simulated positions")
	}
	for _, needle := range []string{`"Reply"`, `#8b5cf6`, `#f59e0b`} {
		if !strings.Contains(html, needle) {
			t.Errorf("exported chart missing %s", needle)
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if doc.Find("div").Length() == 0 {
		t.Error("exported page has no chart container")
	}
	if title := doc.Find("title").Text(); !strings.Contains(title, "CrossDebate") {
		t.Errorf("page title = %q", title)
	}
}

func TestRenderHTMLDisambiguatesDuplicateLabels(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, sampleFrame()); err != nil {
		t.Fatalf("RenderHTML returned error: %v", err)
	}
	html := buf.String()

	// Two nodes share the label "Claim"; the second must carry its id so
	// link endpoints resolve unambiguously.
	if !strings.Contains(html, "Claim (n2)") {
		t.Error("duplicate label not disambiguated with the node id")
	}
}

func TestRenderHTMLEmptyFrame(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, scene.Frame{}); err != nil {
		t.Fatalf("RenderHTML on empty frame returned error: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("empty frame produced no page")
	}
}
