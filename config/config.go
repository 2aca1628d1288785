package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	defaultSiteName          = "Yakdar Form Hub"
	defaultNotice            = "All rights reserved © Yakdar 2024.  \nPlease do not share any links outside the Yakdar organization."
	defaultNoticeIcon        = "ℹ️"
	defaultSearchPlaceholder = "e.g., Beneficiary Registration"
)

// Config encapsulates runtime and build-time options.
type Config struct {
	Live              bool   `json:"live"`
	Listen            string `json:"listen"`
	BaseURL           string `json:"baseUrl"`
	SiteName          string `json:"siteName"`
	Heading           string `json:"heading"`
	Tagline           string `json:"tagline"`
	Catalog           string `json:"catalog"`
	TemplateDir       string `json:"templateDir"`
	OutputDir         string `json:"outputDir"`
	Logo              string `json:"logo"`
	Notice            string `json:"notice"`
	NoticeFile        string `json:"noticeFile"`
	NoticeIcon        string `json:"noticeIcon"`
	SearchPlaceholder string `json:"searchPlaceholder"`
	EnableTLS         bool   `json:"enableTLS"`
	TLSCert           string `json:"tlsCert"`
	TLSKey            string `json:"tlsKey"`
	LogLevel          string `json:"logLevel"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Live: true}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from disk and applies sane defaults.
// A missing file yields the defaults when allowMissing is set.
func Load(path string, allowMissing bool) (*Config, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		if allowMissing && errors.Is(err, os.ErrNotExist) {
			cfg := &Config{Live: true}
			return cfg, cfg.finish()
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{Live: true}
	if err := json.Unmarshal(bytes, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, cfg.finish()
}

func (c *Config) finish() error {
	c.applyEnvOverrides()
	c.applyDefaults()
	return c.validate()
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("FORMHUB_LISTEN")); v != "" {
		c.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("FORMHUB_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.OutputDir == "" {
		c.OutputDir = "./dist"
	}
	c.BaseURL = normalizeBaseURL(c.BaseURL)

	c.SiteName = strings.TrimSpace(c.SiteName)
	if c.SiteName == "" {
		c.SiteName = defaultSiteName
	}
	c.Heading = strings.TrimSpace(c.Heading)
	if c.Heading == "" {
		c.Heading = c.SiteName
	}
	c.Tagline = strings.TrimSpace(c.Tagline)

	c.Catalog = strings.TrimSpace(c.Catalog)
	c.TemplateDir = strings.TrimSpace(c.TemplateDir)
	c.Logo = strings.TrimSpace(c.Logo)
	c.NoticeFile = strings.TrimSpace(c.NoticeFile)

	if strings.TrimSpace(c.Notice) == "" && c.NoticeFile == "" {
		c.Notice = defaultNotice
	}
	if strings.TrimSpace(c.NoticeIcon) == "" {
		c.NoticeIcon = defaultNoticeIcon
	}
	if strings.TrimSpace(c.SearchPlaceholder) == "" {
		c.SearchPlaceholder = defaultSearchPlaceholder
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.EnableTLS {
		if c.TLSCert == "" || c.TLSKey == "" {
			return fmt.Errorf("tls enabled but certificates missing")
		}
	}
	if c.Notice != "" && c.NoticeFile != "" {
		return fmt.Errorf("notice and noticeFile are mutually exclusive")
	}
	if strings.Contains(c.BaseURL, "..") {
		return fmt.Errorf("baseUrl escapes root: %q", c.BaseURL)
	}
	return nil
}

// Href joins elem onto the configured base URL, always returning an absolute path.
func (c *Config) Href(elem ...string) string {
	parts := append([]string{"/", c.BaseURL}, elem...)
	joined := path.Join(parts...)
	if len(elem) > 0 && strings.HasSuffix(elem[len(elem)-1], "/") && joined != "/" {
		joined += "/"
	}
	return joined
}

func normalizeBaseURL(raw string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(raw, "\\", "/"))
	trimmed = strings.Trim(trimmed, "/")
	if trimmed == "" {
		return ""
	}
	return path.Clean(trimmed)
}
