// Package export renders the current scene to a standalone HTML chart. The
// exported graph keeps the simulated coordinates instead of re-running a
// layout, so the file shows exactly what was on screen.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/CrossDebate/app/backend/internal/scene"
)

// RenderHTML writes a chart of the frame to w.
func RenderHTML(w io.Writer, frame scene.Frame) error {
	names := nodeNames(frame)

	nodes := make([]opts.GraphNode, 0, len(frame.Nodes))
	for _, n := range frame.Nodes {
		nodes = append(nodes, opts.GraphNode{
			Name:       names[n.ID],
			X:          float32(n.X),
			Y:          float32(n.Y),
			Value:      float32(n.Relevance),
			SymbolSize: n.Radius * 2,
			ItemStyle:  &opts.ItemStyle{Color: n.Color},
		})
	}

	links := make([]opts.GraphLink, 0, len(frame.Links))
	for _, l := range frame.Links {
		links = append(links, opts.GraphLink{
			Source: names[l.Source],
			Target: names[l.Target],
			Value:  float32(l.Weight),
		})
	}

	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "CrossDebate hypergraph export",
			Height:    "100vh",
			Width:     "100vw",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Hypergraph of Thoughts",
			Subtitle: fmt.Sprintf("%d nodes, %d links, exported %s",
				len(frame.Nodes), len(frame.Links), time.Now().Format("2006-01-02 15:04")),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
	)
	graph.AddSeries(
		"hypergraph",
		nodes,
		links,
		charts.WithGraphChartOpts(
			opts.GraphChart{
				Layout:    "none",
				Roam:      opts.Bool(true),
				Draggable: opts.Bool(false),
			},
		),
		charts.WithLabelOpts(opts.Label{
			Show:     opts.Bool(true),
			Color:    "#6b7280",
			Position: "bottom",
		}),
	)

	page := components.NewPage()
	page.AddCharts(graph)
	return page.Render(w)
}

// nodeNames maps node ids to unique display names. Chart links reference
// nodes by name, so duplicate labels get the id appended.
func nodeNames(frame scene.Frame) map[string]string {
	names := make(map[string]string, len(frame.Nodes))
	used := make(map[string]bool, len(frame.Nodes))
	for _, n := range frame.Nodes {
		name := n.Label
		if name == "" {
			name = n.ID
		} else if used[name] {
			name = fmt.Sprintf("%s (%s)", n.Label, n.ID)
		}
		names[n.ID] = name
		used[name] = true
	}
	return names
}
