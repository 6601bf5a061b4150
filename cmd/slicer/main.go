package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/TheRealTwizzy/notification_ninja/config"
	"github.com/TheRealTwizzy/notification_ninja/game"
	"github.com/TheRealTwizzy/notification_ninja/highscores"
	"github.com/TheRealTwizzy/notification_ninja/scoreclient"
	"github.com/TheRealTwizzy/notification_ninja/scorekeeper"
)

const frameInterval = 16 * time.Millisecond

type clientConfig struct {
	APIURL            string `env:"SLICER_API_URL"`
	APITimeoutSeconds int    `env:"SLICER_API_TIMEOUT_SECONDS" envDefault:"10"`
	DataPath          string `env:"SLICER_DATA_PATH"`
	Sound             bool   `env:"SLICER_SOUND" envDefault:"true"`
	LogPath           string `env:"SLICER_LOG_PATH"`
}

func main() {
	var cfg clientConfig
	if err := config.Load(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// The screen owns stdout, so logs go to a file or nowhere.
	logFile, err := setupLogging(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "slicer: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg clientConfig) error {
	var (
		local     scorekeeper.LocalStore
		best      bestReader
		submitter scorekeeper.Submitter
		board     boardFetcher
	)

	dataPath, err := resolveDataPath(cfg.DataPath)
	if err != nil {
		log.Println("No local data path, high scores disabled:", err)
	} else if store, err := highscores.Open(dataPath); err != nil {
		log.Println("Failed to open local high scores:", err)
	} else {
		defer store.Close()
		local = store
		best = store
	}

	if cfg.APIURL != "" {
		client := scoreclient.New(cfg.APIURL, time.Duration(cfg.APITimeoutSeconds)*time.Second)
		submitter = client
		board = client
	} else {
		log.Println("SLICER_API_URL not set; scores stay local")
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.HideCursor()

	snd, err := newSounds(cfg.Sound)
	if err != nil {
		// Non-fatal, game can run without sound
		log.Printf("Audio initialization failed: %v", err)
	}
	defer snd.close()

	loop := game.NewLoop()
	jobs := make(chan func(), 16)
	defer close(jobs)
	go func() {
		for job := range jobs {
			job()
		}
	}()

	a := newApp(screen, loop, game.DefaultConfig(), scorekeeper.NewRecorder(local, submitter), best, board, snd)
	a.post = func(fn func()) { loop.Do(fn) }
	a.work = func(fn func()) { jobs <- fn }

	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			if !loop.Do(func() {
				if !a.handleEvent(ev) {
					loop.Stop()
				}
			}) {
				return
			}
		}
	}()

	loop.Do(func() {
		a.draw()
		loop.Every(frameInterval, a.draw)
	})
	loop.Run()
	return nil
}

func setupLogging(path string) (*os.File, error) {
	if path == "" {
		log.SetOutput(io.Discard)
		return nil, nil
	}
	file, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	log.SetOutput(file)
	return file, nil
}

func resolveDataPath(path string) (string, error) {
	if path != "" {
		return filepath.Clean(path), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "notification_ninja")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "slicer.db"), nil
}
