package pipeline

import (
	"fmt"
	"math"

	"nvrgraph/internal/failures"
)

// Tile geometry of one channel on the composited canvas.
const (
	TileWidth  = 640
	TileHeight = 360
)

// MaxChannels is the absolute ceiling on channels per graph.
const MaxChannels = 256

// Placement is a channel's top-left corner on the canvas.
type Placement struct {
	Channel int `json:"channel"`
	X       int `json:"x"`
	Y       int `json:"y"`
}

// GridSide returns the smallest g with g*g >= n.
func GridSide(n int) int {
	if n <= 0 {
		return 0
	}
	g := int(math.Ceil(math.Sqrt(float64(n))))
	for g*g < n {
		g++
	}
	for g > 1 && (g-1)*(g-1) >= n {
		g--
	}
	return g
}

// Plan lays out n channels row-major on a GridSide(n) square grid.
func Plan(n int) ([]Placement, error) {
	if n < 0 {
		return nil, failures.Wrap(failures.ErrValidation, "layout", "plan", fmt.Sprintf("channel count %d is negative", n), nil)
	}
	if n > MaxChannels {
		return nil, failures.Wrap(failures.ErrValidation, "layout", "plan", fmt.Sprintf("channel count %d exceeds %d", n, MaxChannels), nil)
	}
	g := GridSide(n)
	out := make([]Placement, n)
	for i := range n {
		out[i] = Placement{Channel: i, X: (i % g) * TileWidth, Y: (i / g) * TileHeight}
	}
	return out, nil
}

// Canvas returns the bounding box of the placed tiles for n channels.
func Canvas(n int) (width, height int) {
	g := GridSide(n)
	if g == 0 {
		return 0, 0
	}
	cols := min(n, g)
	rows := (n + g - 1) / g
	return cols * TileWidth, rows * TileHeight
}
