package config

import (
	"time"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/auth"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/reaper"
)

// ControllerEnv holds the session controller's runtime settings, sourced
// once from the process environment at startup.
type ControllerEnv struct {
	ListenAddr  string
	MetricsAddr string

	Creds auth.Credentials

	SessionStore string // "memory" or "redis"
	RedisAddr    string
	RedisPassword string
	RedisDB      int

	Reaper reaper.Config
}

// ReadControllerEnv reads the controller's configuration from the
// process environment, falling back to documented defaults (§6).
func ReadControllerEnv() ControllerEnv {
	reaperDefaults := reaper.DefaultConfig()

	return ControllerEnv{
		ListenAddr:  ParseString("LISTEN_ADDR", ":8080"),
		MetricsAddr: ParseString("METRICS_ADDR", ":9090"),
		Creds: auth.Credentials{
			Username: ParseString("AUTH_USERNAME", "admin"),
			Password: ParseString("AUTH_PASSWORD", ""),
		},
		SessionStore:  ParseString("SESSION_STORE", "memory"),
		RedisAddr:     ParseString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: ParseString("REDIS_PASSWORD", ""),
		RedisDB:       ParseInt("REDIS_DB", 0),
		Reaper: reaper.Config{
			Interval:        ParseDuration("REAPER_INTERVAL", 30*time.Second),
			MaxInactiveTime: ParseDuration("MAX_INACTIVE_TIME", reaperDefaults.MaxInactiveTime),
			ChunkTimeSize:   ParseDuration("CHUNK_TIME_SIZE", reaperDefaults.ChunkTimeSize),
			MaxAgeHours:     ParseFloat("MAX_AGE_HOURS", reaperDefaults.MaxAgeHours),
		},
	}
}
