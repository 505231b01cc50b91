package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with values from a .env file (when present in the
// working directory) and from the process environment. Environment variables
// win over the file, matching godotenv semantics.
func parseEnv(cfg *Config) error {
	// a missing .env file is not an error, plain env vars still apply
	_ = godotenv.Load()

	if v := os.Getenv("BOARDSYNC_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("BOARDSYNC_WORKSPACE_ID"); v != "" {
		cfg.WorkspaceID = v
	}
	if v := os.Getenv("BOARDSYNC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	for _, d := range []struct {
		name string
		dst  *time.Duration
	}{
		{"BOARDSYNC_ONLINE_CHECK_INTERVAL", &cfg.OnlineCheckInterval},
		{"BOARDSYNC_SAVE_DEBOUNCE", &cfg.SaveDebounce},
		{"BOARDSYNC_SAVE_RETRY_DELAY", &cfg.SaveRetryDelay},
		{"BOARDSYNC_SAVE_BACKUP_INTERVAL", &cfg.SaveBackupInterval},
	} {
		v := os.Getenv(d.name)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", d.name, err)
		}
		*d.dst = parsed
	}
	return nil
}
