package game

import "time"

// Point is a pointer or block position in viewport units.
type Point struct {
	X float64
	Y float64
}

// Block is one spawned notification tile.
type Block struct {
	ID          string
	X           float64
	Y           float64
	Size        float64
	Category    Category
	Points      int
	Color       string
	Icon        string
	Title       string
	Description string
	SpawnedAt   time.Time
	ExitingAt   time.Time

	JustSpawned bool
	Sliced      bool
	Exiting     bool
}

// Live reports whether the block can still be hit or expire.
func (b Block) Live() bool {
	return !b.Sliced && !b.Exiting
}

// Contains tests p against the block's wide tile: twice the nominal size
// across, the nominal size tall, anchored at (X, Y).
func (b Block) Contains(p Point) bool {
	centerX := b.X + b.Size
	centerY := b.Y + b.Size/2
	dx := p.X - centerX
	if dx < 0 {
		dx = -dx
	}
	dy := p.Y - centerY
	if dy < 0 {
		dy = -dy
	}
	return dx <= b.Size && dy <= b.Size/2
}

// Width and Height are the rendered tile dimensions.
func (b Block) Width() float64  { return b.Size * 2 }
func (b Block) Height() float64 { return b.Size }

func (b Block) markExiting(now time.Time) Block {
	b.Exiting = true
	b.ExitingAt = now
	return b
}
