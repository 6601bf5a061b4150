package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TheRealTwizzy/notification_ninja/config"
	"github.com/TheRealTwizzy/notification_ninja/game"
	"github.com/TheRealTwizzy/notification_ninja/scoreclient"
)

type BotConfig struct {
	Name     string `json:"name"`
	Strategy string `json:"strategy"`
	Runs     int    `json:"runs,omitempty"`
}

type runnerConfig struct {
	BaseURL  string `env:"API_BASE_URL"`
	Enabled  bool   `env:"BOTS_ENABLED" envDefault:"true"`
	BotList  string `env:"BOT_LIST"`
	BotPath  string `env:"BOT_LIST_PATH"`
	MinDelay int    `env:"BOT_RATE_LIMIT_MIN_MS" envDefault:"3000"`
	MaxDelay int    `env:"BOT_RATE_LIMIT_MAX_MS" envDefault:"12000"`
	MaxRuns  int    `env:"BOT_MAX_RUNS" envDefault:"1"`
}

type scoreSubmitter interface {
	Submit(ctx context.Context, score int, name string) error
}

func main() {
	var cfg runnerConfig
	if err := config.Load(&cfg); err != nil {
		logError(fmt.Sprintf("failed to load config: %v", err))
		os.Exit(1)
	}
	if !cfg.Enabled {
		logInfo("bots disabled")
		return
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		logError("API_BASE_URL is required")
		os.Exit(1)
	}

	bots, err := loadBots(cfg)
	if err != nil {
		logError(fmt.Sprintf("failed to load bots: %v", err))
		os.Exit(1)
	}
	if len(bots) == 0 {
		logInfo("no bots configured")
		return
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	shuffle(rng, bots)

	client := scoreclient.New(baseURL, 15*time.Second)
	submitted := runBots(context.Background(), bots, client, cfg, rng, func() {
		sleepJitter(rng, cfg.MinDelay, cfg.MaxDelay)
	})
	logInfo(fmt.Sprintf("run complete: %d scores submitted", submitted))
}

// runBots plays each bot's rounds and submits positive scores. It returns
// how many submissions the server accepted.
func runBots(ctx context.Context, bots []BotConfig, client scoreSubmitter, cfg runnerConfig, rng *rand.Rand, pause func()) int {
	submitted := 0
	gameCfg := game.DefaultConfig()
	for _, bot := range bots {
		runs := bot.Runs
		if runs <= 0 {
			runs = 1
		}
		if cfg.MaxRuns > 0 && runs > cfg.MaxRuns {
			runs = cfg.MaxRuns
		}
		strat := strategyFor(bot.Strategy)

		for i := 0; i < runs; i++ {
			result := playRound(gameCfg, strat, rng.Int63())
			if !result.Submit {
				logInfo(fmt.Sprintf("%s (%s) scored %d, not submitted", bot.Name, strat.name, result.Score))
				continue
			}
			if err := client.Submit(ctx, result.Score, bot.Name); err != nil {
				logError(fmt.Sprintf("submit failed for %s: %v", bot.Name, err))
				continue
			}
			submitted++
			logInfo(fmt.Sprintf("%s (%s) submitted %d", bot.Name, strat.name, result.Score))
			if pause != nil {
				pause()
			}
		}
	}
	return submitted
}

func loadBots(cfg runnerConfig) ([]BotConfig, error) {
	if raw := strings.TrimSpace(cfg.BotList); raw != "" {
		return parseBots([]byte(raw))
	}
	if raw := strings.TrimSpace(cfg.BotPath); raw != "" {
		data, err := os.ReadFile(filepath.Clean(raw))
		if err != nil {
			return nil, err
		}
		return parseBots(data)
	}
	return nil, nil
}

func parseBots(data []byte) ([]BotConfig, error) {
	var bots []BotConfig
	if err := json.Unmarshal(data, &bots); err != nil {
		return nil, err
	}
	valid := bots[:0]
	for _, bot := range bots {
		bot.Name = strings.TrimSpace(bot.Name)
		if bot.Name == "" {
			logError("skipping bot without a name")
			continue
		}
		valid = append(valid, bot)
	}
	return valid, nil
}

func sleepJitter(rng *rand.Rand, minMs int, maxMs int) {
	if minMs <= 0 {
		return
	}
	if maxMs < minMs {
		maxMs = minMs
	}
	jitter := rng.Intn(maxMs-minMs+1) + minMs
	time.Sleep(time.Duration(jitter) * time.Millisecond)
}

func shuffle(rng *rand.Rand, bots []BotConfig) {
	rng.Shuffle(len(bots), func(i, j int) {
		bots[i], bots[j] = bots[j], bots[i]
	})
}

func logInfo(message string) {
	fmt.Printf("[INFO] %s %s\n", time.Now().Format(time.RFC3339), message)
}

func logError(message string) {
	fmt.Printf("[ERROR] %s %s\n", time.Now().Format(time.RFC3339), message)
}
