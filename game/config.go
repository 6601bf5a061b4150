package game

import "time"

// RampStep raises the spawn multiplier once the clock reaches AtOrBelow
// seconds remaining.
type RampStep struct {
	AtOrBelow  int
	Multiplier int
}

// SpawnRamp is ordered from the loosest threshold to the tightest.
type SpawnRamp []RampStep

var DefaultRamp = SpawnRamp{
	{AtOrBelow: 45, Multiplier: 2},
	{AtOrBelow: 30, Multiplier: 3},
	{AtOrBelow: 15, Multiplier: 4},
}

// Multiplier returns the spawn-rate factor for secondsLeft.
func (r SpawnRamp) Multiplier(secondsLeft int) int {
	multiplier := 1
	for _, step := range r {
		if secondsLeft <= step.AtOrBelow && step.Multiplier > multiplier {
			multiplier = step.Multiplier
		}
	}
	return multiplier
}

// Difficulty is the HUD label for a multiplier.
func Difficulty(multiplier int) string {
	switch {
	case multiplier <= 1:
		return "Normal"
	case multiplier == 2:
		return "Fast"
	case multiplier == 3:
		return "Extreme"
	default:
		return "Insane"
	}
}

// Margins keep spawned tiles clear of the edges and the footer. Right and
// Bottom are reserved space, Left and Top are offsets.
type Margins struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

type Viewport struct {
	Width  float64
	Height float64
}

type Config struct {
	RoundLength       time.Duration
	BaseSpawnInterval time.Duration
	SpawnJitter       time.Duration
	MaxLiveBlocks     int
	BlockSize         float64

	ExpiryAge      time.Duration
	ExpirySweep    time.Duration
	ExitDelay      time.Duration
	SpawnFlagDelay time.Duration

	TrailLength int

	Ramp       SpawnRamp
	Categories CategoryTable
	Viewport   Viewport
	Margins    Margins

	// Folder settings for the decorative desktop.
	MaxFolders     int
	InitialFolders int
	RoundFolders   int
}

// DefaultConfig mirrors the browser layout: 100px tiles in a 1280x800 area.
func DefaultConfig() Config {
	return Config{
		RoundLength:       60 * time.Second,
		BaseSpawnInterval: 1500 * time.Millisecond,
		SpawnJitter:       400 * time.Millisecond,
		MaxLiveBlocks:     10,
		BlockSize:         100,
		ExpiryAge:         8 * time.Second,
		ExpirySweep:       100 * time.Millisecond,
		ExitDelay:         800 * time.Millisecond,
		SpawnFlagDelay:    500 * time.Millisecond,
		TrailLength:       8,
		Ramp:              DefaultRamp,
		Categories:        DefaultCategories,
		Viewport:          Viewport{Width: 1280, Height: 800},
		Margins:           Margins{Left: 20, Top: 100, Right: 300, Bottom: 300},
		MaxFolders:        15,
		InitialFolders:    8,
		RoundFolders:      5,
	}
}

func (c Config) roundSeconds() int {
	return int(c.RoundLength / time.Second)
}
