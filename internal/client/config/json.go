package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/boardsync/boardsync-client/internal/flagx"
	"github.com/boardsync/boardsync-client/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so intervals can be written either as strings like "2s" or
// as integer nanoseconds. Absent fields keep the value assembled so far.
type JsonConfig struct {
	ServerURL           *string         `json:"server_url"`
	WorkspaceID         *string         `json:"workspace_id"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	SaveDebounce        *timex.Duration `json:"save_debounce"`
	SaveRetryDelay      *timex.Duration `json:"save_retry_delay"`
	SaveBackupInterval  *timex.Duration `json:"save_backup_interval"`
	LogLevel            *string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// the -c/-config flag. When the flag is absent nothing is loaded.
func parseJson(cfg *Config) error {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", jsonConfigFile, err)
	}

	if jc.ServerURL != nil {
		cfg.ServerURL = *jc.ServerURL
	}
	if jc.WorkspaceID != nil {
		cfg.WorkspaceID = *jc.WorkspaceID
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
	if jc.SaveDebounce != nil {
		cfg.SaveDebounce = time.Duration(jc.SaveDebounce.Duration)
	}
	if jc.SaveRetryDelay != nil {
		cfg.SaveRetryDelay = time.Duration(jc.SaveRetryDelay.Duration)
	}
	if jc.SaveBackupInterval != nil {
		cfg.SaveBackupInterval = time.Duration(jc.SaveBackupInterval.Duration)
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
	return nil
}
