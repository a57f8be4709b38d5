package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	def := defaultConfig()
	return &Config{
		API: APIConfig{
			BaseURL:   "http://127.0.0.1:0/",
			Timeout:   5 * time.Second,
			UserAgent: "fwrdcast-test/1.0",
			PageSize:  30,
			MaxItems:  1000,
		},
		Player: PlayerConfig{
			ProgressInterval: 1 * time.Second,
			SkipOffset:       30 * time.Second,
			Rates:            def.Player.Rates,
			ReportTimeout:    1 * time.Second,
		},
		Database: DatabaseConfig{
			Path:    ":memory:", // tests open their own temp databases
			Timeout: 1 * time.Second,
		},
		Search: SearchConfig{Enabled: true, Limit: 20},
		Log:    LogConfig{Level: "off"},
		UI:     def.UI,
		Media:  def.Media,
		Keys:   def.Keys,
	}
}
