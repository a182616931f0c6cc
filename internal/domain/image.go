package domain

import (
	"sort"
	"time"
)

// Position enumerates the four fixed quadrants of the composite canvas.
type Position string

const (
	PositionTopLeft     Position = "top-left"
	PositionTopRight    Position = "top-right"
	PositionBottomLeft  Position = "bottom-left"
	PositionBottomRight Position = "bottom-right"
)

// Positions lists the valid quadrant positions in canonical order.
var Positions = []Position{
	PositionTopLeft,
	PositionTopRight,
	PositionBottomLeft,
	PositionBottomRight,
}

// GeneratedImage is one extracted quadrant belonging to a generation. At most
// one row exists per (generation, position) pair.
type GeneratedImage struct {
	ID           string
	GenerationID string
	Position     Position
	ImageURL     string
	CreatedAt    time.Time
}

// ValidPosition reports whether p is one of the four quadrant positions.
func ValidPosition(p Position) bool {
	switch p {
	case PositionTopLeft, PositionTopRight, PositionBottomLeft, PositionBottomRight:
		return true
	}
	return false
}

// SortImagesByPosition orders images into canonical quadrant order. Callers
// needing deterministic reference selection sort before slicing.
func SortImagesByPosition(images []GeneratedImage) {
	rank := make(map[Position]int, len(Positions))
	for i, p := range Positions {
		rank[p] = i
	}
	sort.SliceStable(images, func(i, j int) bool {
		return rank[images[i].Position] < rank[images[j].Position]
	})
}
