package main

// FeatureFlags toggle optional server surfaces.
type FeatureFlags struct {
	ScoreStream bool `env:"ENABLE_SCORE_STREAM" envDefault:"true"`
	RateLimit   bool `env:"ENABLE_RATE_LIMIT" envDefault:"false"`
}

type ServerConfig struct {
	Port         string `env:"PORT" envDefault:"8080"`
	DatabaseURL  string `env:"DATABASE_URL"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"5"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	AppEnv       string `env:"APP_ENV" envDefault:"local"`

	ScoreRateLimit         int `env:"SCORE_RATE_LIMIT" envDefault:"30"`
	ScoreRateWindowSeconds int `env:"SCORE_RATE_WINDOW_SECONDS" envDefault:"600"`
	LeaderboardMaxLimit    int `env:"LEADERBOARD_MAX_LIMIT" envDefault:"100"`
	StreamIntervalSeconds  int `env:"STREAM_INTERVAL_SECONDS" envDefault:"5"`

	Flags FeatureFlags
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:                   "8080",
		MaxOpenConns:           5,
		MaxIdleConns:           5,
		AppEnv:                 "local",
		ScoreRateLimit:         30,
		ScoreRateWindowSeconds: 600,
		LeaderboardMaxLimit:    100,
		StreamIntervalSeconds:  5,
		Flags:                  FeatureFlags{ScoreStream: true},
	}
}
