package models

// Config represents the application configuration
type Config struct {
	Steem    SteemConfig    `yaml:"steem"`
	API      APIConfig      `yaml:"api"`
	MongoDB  MongoDBConfig  `yaml:"mongodb"`
	Telegram TelegramConfig `yaml:"telegram"`
	Engine   EngineConfig   `yaml:"engine"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
}

// SteemConfig contains Steem blockchain configuration
type SteemConfig struct {
	APIURL string `yaml:"api_url"`
}

// APIConfig contains API server configuration
type APIConfig struct {
	Port string `yaml:"port"`
	Host string `yaml:"host"`
}

// MongoDBConfig contains MongoDB connection configuration for the report
// archive. An empty URI disables archiving.
type MongoDBConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// TelegramConfig contains Telegram notification configuration
type TelegramConfig struct {
	Enabled   bool   `yaml:"enabled"`
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// EngineConfig tunes the conversion engine.
type EngineConfig struct {
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"` // How long a global-properties snapshot may be reused
}

// AnalyzerConfig tunes the curation analyzer. Zero values fall back to the
// built-in safety defaults; the scan ceilings cannot be disabled.
type AnalyzerConfig struct {
	WindowDays         int `yaml:"window_days"`
	PageSize           int `yaml:"page_size"`
	FanOut             int `yaml:"fan_out"`
	MaxOperations      int `yaml:"max_operations"`
	MaxDurationSeconds int `yaml:"max_duration_seconds"`
}
