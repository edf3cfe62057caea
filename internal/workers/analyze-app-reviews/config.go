// internal/workers/analyze-app-reviews/config.go
package analyzeappreviews

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Minute,
	}
}
