package main

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/TheRealTwizzy/notification_ninja/game"
)

const sampleRate = beep.SampleRate(44100)

type tone struct {
	freq     float64
	duration time.Duration
}

var sliceTones = map[game.Category][]tone{
	game.CategoryRegular: {{freq: 880, duration: 50 * time.Millisecond}},
	game.CategoryBonus:   {{freq: 1320, duration: 40 * time.Millisecond}, {freq: 1760, duration: 60 * time.Millisecond}},
	game.CategorySpam:    {{freq: 196, duration: 120 * time.Millisecond}},
}

// sounds plays short sine cues. A failed speaker init leaves it silent.
type sounds struct {
	enabled bool
}

func newSounds(want bool) (*sounds, error) {
	if !want {
		return &sounds{}, nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return &sounds{}, err
	}
	return &sounds{enabled: true}, nil
}

func (s *sounds) slice(c game.Category) {
	if s == nil || !s.enabled {
		return
	}
	tones, ok := sliceTones[c]
	if !ok {
		return
	}
	streamers := make([]beep.Streamer, 0, len(tones))
	for _, t := range tones {
		sine, err := generators.SineTone(sampleRate, t.freq)
		if err != nil {
			continue
		}
		streamers = append(streamers, beep.Take(sampleRate.N(t.duration), sine))
	}
	if len(streamers) == 0 {
		return
	}
	speaker.Play(beep.Seq(streamers...))
}

func (s *sounds) close() {
	if s != nil && s.enabled {
		speaker.Close()
	}
}
