// Package count turns track trajectories into line-crossing counts. It
// evaluates confirmed tracks against a counting line, debounces crossings
// with a per-track cooldown and emits immutable CountEvents.
package count

import (
	"github.com/riverwatch/boatcount/mot"
)

// Line is the counting line, defined by two endpoints in frame
// coordinates. The endpoint order fixes which crossing sense is
// DirectionA: moving from the negative to the positive side of the
// directed segment A→B.
type Line struct {
	A mot.Point
	B mot.Point
}

// NewLine creates a counting line between two endpoints.
func NewLine(a, b mot.Point) Line {
	return Line{A: a, B: b}
}

// VerticalLineAt builds a vertical line at ratio*frameWidth, oriented so
// that DirectionA is left-to-right — the original counter's single
// counted sense at COUNT_LINE_RATIO of the frame width.
func VerticalLineAt(ratio, frameWidth, frameHeight float64) Line {
	x := frameWidth * ratio
	return Line{
		A: mot.NewPoint(x, frameHeight),
		B: mot.NewPoint(x, 0),
	}
}

// HorizontalLineAt builds a horizontal line at ratio*frameHeight, oriented
// so that DirectionA is top-to-bottom.
func HorizontalLineAt(ratio, frameWidth, frameHeight float64) Line {
	y := frameHeight * ratio
	return Line{
		A: mot.NewPoint(0, y),
		B: mot.NewPoint(frameWidth, y),
	}
}

// Side returns the signed side of p relative to the directed line A→B:
// +1, -1, or exactly 0 when p sits on the line. The cross product of the
// line direction with A→p decides the sign.
func (l Line) Side(p mot.Point) int {
	cross := (l.B.X-l.A.X)*(p.Y-l.A.Y) - (l.B.Y-l.A.Y)*(p.X-l.A.X)
	switch {
	case cross > 0:
		return 1
	case cross < 0:
		return -1
	default:
		return 0
	}
}
