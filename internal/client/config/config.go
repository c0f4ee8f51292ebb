package config

import "time"

// Config holds runtime settings for the SkyDrive CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend HTTP API.
//   - RequestTimeout: per-request deadline for API calls.
//   - UploadConcurrency: how many uploads run simultaneously.
//   - DownloadsDir: subdirectory (under the working dir) for downloaded files.
type Config struct {
	ServerEndpointAddr string
	RequestTimeout     time.Duration
	UploadConcurrency  int
	DownloadsDir       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.RequestTimeout = 30 * time.Second
	c.UploadConcurrency = 3
	c.DownloadsDir = "downloads"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
