// Package render turns chart descriptions into artifacts. Pixel rendering is
// left to an external tool; the bundled renderer emits Vega-Lite specs.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Mark is the chart geometry
type Mark string

const (
	MarkBar   Mark = "bar"
	MarkRect  Mark = "rect"
	MarkPoint Mark = "point"
)

// Channel binds a data field to a visual channel
type Channel struct {
	Field string `json:"field"`
	Type  string `json:"type"` // nominal, quantitative
	Title string `json:"title,omitempty"`
}

// Nominal and Quantitative build channels
func Nominal(field string) *Channel      { return &Channel{Field: field, Type: "nominal"} }
func Quantitative(field string) *Channel { return &Channel{Field: field, Type: "quantitative"} }

// Titled sets the axis or legend title
func (c *Channel) Titled(title string) *Channel {
	c.Title = title
	return c
}

// Chart describes one chart independently of the output format
type Chart struct {
	Name    string
	Title   string
	Mark    Mark
	Values  []map[string]interface{}
	X       *Channel
	Y       *Channel
	Color   *Channel
	XOffset *Channel
}

// ChartRenderer produces an artifact for a chart
type ChartRenderer interface {
	// Extension is appended to Chart.Name to form the artifact file name
	Extension() string
	Render(c Chart) ([]byte, error)
}

// VegaLite renders charts as Vega-Lite v5 JSON specs
type VegaLite struct{}

var _ ChartRenderer = VegaLite{}

// Extension returns ".vl.json"
func (VegaLite) Extension() string {
	return ".vl.json"
}

type vegaSpec struct {
	Schema   string                 `json:"$schema"`
	Title    string                 `json:"title"`
	Width    int                    `json:"width"`
	Height   int                    `json:"height"`
	Data     vegaData               `json:"data"`
	Mark     vegaMark               `json:"mark"`
	Encoding map[string]interface{} `json:"encoding"`
}

type vegaData struct {
	Values []map[string]interface{} `json:"values"`
}

type vegaMark struct {
	Type    Mark     `json:"type"`
	Opacity *float64 `json:"opacity,omitempty"`
	Tooltip bool     `json:"tooltip"`
}

// Render encodes c; identical charts produce identical bytes
func (VegaLite) Render(c Chart) ([]byte, error) {
	if c.X == nil || c.Y == nil {
		return nil, fmt.Errorf("chart %s: x and y channels are required", c.Name)
	}

	enc := map[string]interface{}{"x": c.X, "y": c.Y}
	if c.Color != nil {
		enc["color"] = c.Color
	}
	if c.XOffset != nil {
		enc["xOffset"] = c.XOffset
	}

	values := c.Values
	if values == nil {
		values = []map[string]interface{}{}
	}

	mark := vegaMark{Type: c.Mark, Tooltip: true}
	if c.Mark == MarkPoint {
		opacity := 0.7
		mark.Opacity = &opacity
	}

	spec := vegaSpec{
		Schema:   "https://vega.github.io/schema/vega-lite/v5.json",
		Title:    c.Title,
		Width:    600,
		Height:   360,
		Data:     vegaData{Values: values},
		Mark:     mark,
		Encoding: enc,
	}

	var buf bytes.Buffer
	e := json.NewEncoder(&buf)
	e.SetIndent("", "  ")
	e.SetEscapeHTML(false)
	if err := e.Encode(spec); err != nil {
		return nil, fmt.Errorf("encode chart %s: %w", c.Name, err)
	}
	return buf.Bytes(), nil
}
