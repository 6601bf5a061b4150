package game

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Spawner creates blocks and enforces the live-block cap.
type Spawner struct {
	rng        *rand.Rand
	categories CategoryTable
	viewport   Viewport
	margins    Margins
	size       float64
	maxLive    int
	newID      func() string
}

func NewSpawner(cfg Config, rng *rand.Rand) *Spawner {
	categories := cfg.Categories
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	return &Spawner{
		rng:        rng,
		categories: categories,
		viewport:   cfg.Viewport,
		margins:    cfg.Margins,
		size:       cfg.BlockSize,
		maxLive:    cfg.MaxLiveBlocks,
		newID:      uuid.NewString,
	}
}

// SetViewport updates the spawn area, e.g. after a terminal resize.
func (s *Spawner) SetViewport(v Viewport) {
	s.viewport = v
}

func (s *Spawner) NewBlock(now time.Time) Block {
	spec := s.categories.Pick(s.rng.Float64())
	return Block{
		ID:          s.newID(),
		X:           s.axis(s.viewport.Width, s.margins.Left, s.margins.Right),
		Y:           s.axis(s.viewport.Height, s.margins.Top, s.margins.Bottom),
		Size:        s.size,
		Category:    spec.Category,
		Points:      spec.Points,
		Color:       spec.Color,
		Icon:        spec.Icon,
		Title:       s.pickWord(spec.Titles),
		Description: s.pickWord(spec.Descriptions),
		SpawnedAt:   now,
		JustSpawned: true,
	}
}

// Fill appends one new block when fewer than the cap are live. Sliced and
// exiting blocks do not count against the cap but stay in the list until the
// exit removal drops them. The bool reports a spawn.
func (s *Spawner) Fill(blocks []Block, now time.Time) ([]Block, bool) {
	if LiveCount(blocks) >= s.maxLive {
		return blocks, false
	}
	return append(blocks, s.NewBlock(now)), true
}

// LiveCount counts blocks that are neither sliced nor exiting.
func LiveCount(blocks []Block) int {
	count := 0
	for _, b := range blocks {
		if b.Live() {
			count++
		}
	}
	return count
}

// Expires reports whether blocks of c are removed by the age sweep.
func (s *Spawner) Expires(c Category) bool {
	spec, ok := s.categories.Lookup(c)
	return ok && spec.Expires
}

// axis draws uniformly from [offset, offset + extent - reserve). Small
// viewports collapse to the offset rather than going negative.
func (s *Spawner) axis(extent, offset, reserve float64) float64 {
	span := extent - reserve
	if span <= 0 {
		return offset
	}
	return s.rng.Float64()*span + offset
}

func (s *Spawner) pickWord(words []string) string {
	if len(words) == 0 {
		return ""
	}
	return words[s.rng.Intn(len(words))]
}
