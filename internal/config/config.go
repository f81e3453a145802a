package config

import (
	"fmt"
	"strings"
)

type Config struct {
	Env                 string
	DatabaseURL         string
	RoomServerURL       string
	RoomName            string
	RoomToken           string
	AgentIdentityPrefix string
	PollIntervalSeconds int
	TaskQueueSize       int
	TaskWorkers         int
	SessionWebhookURL   string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if !strings.HasPrefix(c.RoomServerURL, "ws://") && !strings.HasPrefix(c.RoomServerURL, "wss://") {
		return fmt.Errorf("ROOM_SERVER_URL must be a ws:// or wss:// URL, got %q", c.RoomServerURL)
	}
	if c.PollIntervalSeconds <= 0 {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be positive, got %d", c.PollIntervalSeconds)
	}
	if c.TaskQueueSize <= 0 {
		return fmt.Errorf("TASK_QUEUE_SIZE must be positive, got %d", c.TaskQueueSize)
	}
	if c.TaskWorkers <= 0 {
		return fmt.Errorf("TASK_WORKERS must be positive, got %d", c.TaskWorkers)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "ROOM_SERVER_URL", value: c.RoomServerURL},
		{name: "ROOM_NAME", value: c.RoomName},
		{name: "AGENT_IDENTITY_PREFIX", value: c.AgentIdentityPrefix},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
