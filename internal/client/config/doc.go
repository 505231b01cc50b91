// Package config loads runtime configuration for the boardsync client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional .env file plus process environment (BOARDSYNC_* variables).
//  3. Optional JSON file selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// The assembled Config is validated before use.
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "2s" or integer nanoseconds:
//
//	{
//	  "server_url": "https://boards.example.com",
//	  "workspace_id": "w1",
//	  "online_check_interval": "3s",
//	  "save_debounce": "2s",
//	  "save_retry_delay": "5s",
//	  "save_backup_interval": "30s",
//	  "log_level": "info"
//	}
package config
