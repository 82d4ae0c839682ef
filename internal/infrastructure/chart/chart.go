// Package chart produces Chart.js line chart configurations for the page
package chart

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Data is what the view asks the renderer to draw
type Data struct {
	Labels []string
	Series []float64
	Title  string
}

// Chart is a drawn chart instance bound to the page canvas
type Chart interface {
	ID() string
	Config() Config
	Destroy()
	Destroyed() bool
}

// Renderer draws line charts
type Renderer interface {
	Draw(data Data) (Chart, error)
}

// Config mirrors the Chart.js configuration object consumed by the page script
type Config struct {
	ID      string  `json:"id"`
	Type    string  `json:"type"`
	Data    Dataset `json:"data"`
	Options Options `json:"options"`
}

// Dataset holds the labels and line series
type Dataset struct {
	Labels   []string `json:"labels"`
	Datasets []Line   `json:"datasets"`
}

// Line is one drawn series
type Line struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BorderColor     string    `json:"borderColor"`
	BackgroundColor string    `json:"backgroundColor"`
	BorderWidth     int       `json:"borderWidth"`
}

// Options carries the display options
type Options struct {
	Responsive bool    `json:"responsive"`
	Plugins    Plugins `json:"plugins"`
}

// Plugins configures Chart.js plugins
type Plugins struct {
	Legend Legend `json:"legend"`
}

// Legend configures the chart legend
type Legend struct {
	Display  bool   `json:"display"`
	Position string `json:"position"`
}

const (
	lineColor = "#2F80ED"
	fillColor = "rgba(47, 128, 237, 0.2)"
)

// ChartJSRenderer builds Chart.js configs and tracks live instances
type ChartJSRenderer struct {
	mu   sync.Mutex
	live map[string]struct{}
}

// NewChartJSRenderer creates a renderer with no live charts
func NewChartJSRenderer() *ChartJSRenderer {
	return &ChartJSRenderer{live: make(map[string]struct{})}
}

// Draw creates a new chart instance
func (r *ChartJSRenderer) Draw(data Data) (Chart, error) {
	if len(data.Labels) == 0 {
		return nil, errors.New("chart needs at least one label")
	}
	if len(data.Labels) != len(data.Series) {
		return nil, errors.New("chart labels and series differ in length")
	}

	id := uuid.NewString()
	c := &lineChart{
		renderer: r,
		config: Config{
			ID:   id,
			Type: "line",
			Data: Dataset{
				Labels: append([]string(nil), data.Labels...),
				Datasets: []Line{{
					Label:           data.Title,
					Data:            append([]float64(nil), data.Series...),
					BorderColor:     lineColor,
					BackgroundColor: fillColor,
					BorderWidth:     2,
				}},
			},
			Options: Options{
				Responsive: true,
				Plugins:    Plugins{Legend: Legend{Display: true, Position: "top"}},
			},
		},
	}

	r.mu.Lock()
	r.live[id] = struct{}{}
	r.mu.Unlock()

	return c, nil
}

// Live returns how many drawn charts have not been destroyed
func (r *ChartJSRenderer) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

func (r *ChartJSRenderer) release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.live, id)
}

type lineChart struct {
	renderer  *ChartJSRenderer
	config    Config
	once      sync.Once
	destroyed bool
	mu        sync.Mutex
}

func (c *lineChart) ID() string {
	return c.config.ID
}

func (c *lineChart) Config() Config {
	return c.config
}

func (c *lineChart) Destroy() {
	c.once.Do(func() {
		c.mu.Lock()
		c.destroyed = true
		c.mu.Unlock()
		c.renderer.release(c.config.ID)
	})
}

func (c *lineChart) Destroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}
