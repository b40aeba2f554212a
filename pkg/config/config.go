package config

import "time"

// Client definition client_daemon YAML structure
type Client struct {
	Port      string          `mapstructure:"port"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Poll      PollConfig      `mapstructure:"poll"`
	Popup     PopupConfig     `mapstructure:"popup"`
	Transport TransportConfig `mapstructure:"transport"`
}

// BackendConfig definition backend REST & websocket endpoint
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
	WSURL   string `mapstructure:"ws_url"`
	Timeout int    `mapstructure:"timeout"`
}

// PollConfig definition notification poll setting
type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// PopupConfig definition badge popup animation setting
type PopupConfig struct {
	Entrance time.Duration `mapstructure:"entrance"`
	Dismiss  time.Duration `mapstructure:"dismiss"`
}

// TransportConfig definition live channel reconnect setting
type TransportConfig struct {
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	RetryMax      time.Duration `mapstructure:"retry_max"`
}
