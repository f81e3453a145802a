package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/pigletlabs/peppavoice/internal/config"
)

type envConfig struct {
	Env                 string `env:"ENV" envDefault:"production"`
	DatabaseURL         string `env:"DATABASE_URL,required"`
	RoomServerURL       string `env:"ROOM_SERVER_URL,required"`
	RoomName            string `env:"ROOM_NAME,required"`
	RoomToken           string `env:"ROOM_TOKEN"`
	AgentIdentityPrefix string `env:"AGENT_IDENTITY_PREFIX" envDefault:"agent:"`
	PollIntervalSeconds int    `env:"POLL_INTERVAL_SECONDS" envDefault:"2"`
	TaskQueueSize       int    `env:"TASK_QUEUE_SIZE" envDefault:"64"`
	TaskWorkers         int    `env:"TASK_WORKERS" envDefault:"4"`
	SessionWebhookURL   string `env:"SESSION_WEBHOOK_URL"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                 raw.Env,
		DatabaseURL:         raw.DatabaseURL,
		RoomServerURL:       raw.RoomServerURL,
		RoomName:            raw.RoomName,
		RoomToken:           raw.RoomToken,
		AgentIdentityPrefix: raw.AgentIdentityPrefix,
		PollIntervalSeconds: raw.PollIntervalSeconds,
		TaskQueueSize:       raw.TaskQueueSize,
		TaskWorkers:         raw.TaskWorkers,
		SessionWebhookURL:   raw.SessionWebhookURL,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
