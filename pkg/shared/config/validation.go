package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/specguard/sentinel/pkg/shared/files"
)

// ValidateConfig checks if the global configurations have valid values.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if err := ValidateSentinelConfig(cfg); err != nil {
		return fmt.Errorf("YAML global config: sentinel directive is invalid: %w", err)
	}
	if err := ValidateScanConfig(&cfg.Scan); err != nil {
		return fmt.Errorf("YAML global config: scan directive is invalid: %w", err)
	}
	if err := ValidateUploaderConfig(&cfg.Uploader); err != nil {
		return fmt.Errorf("YAML global config: uploader directive is invalid: %w", err)
	}
	return nil
}

// ValidateSentinelConfig resolves and checks the sentinel home folders.
func ValidateSentinelConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("sentinel configuration is nil")
	}
	if err := updateHome(cfg); err != nil {
		return fmt.Errorf("failed to update home folder: %w", err)
	}
	if cfg.Sentinel.ResultsFolder == "" {
		if env := os.Getenv("SENTINEL_RESULTS_FOLDER"); env != "" {
			cfg.Sentinel.ResultsFolder = env
		} else {
			cfg.Sentinel.ResultsFolder = filepath.Join(cfg.Sentinel.HomeFolder, "results")
		}
	}
	expanded, err := files.ExpandPath(cfg.Sentinel.ResultsFolder)
	if err != nil {
		return fmt.Errorf("failed to expand results folder: %w", err)
	}
	cfg.Sentinel.ResultsFolder = expanded
	return nil
}

// ValidateScanConfig checks scan defaults for structurally invalid values.
// Severity and agent names are validated against the registry when the
// concrete scan config is constructed, not here.
func ValidateScanConfig(scanCfg *Scan) error {
	if scanCfg == nil {
		return fmt.Errorf("scan configuration is nil")
	}
	if scanCfg.Timeout < 0 {
		return fmt.Errorf("timeout %v must not be negative", scanCfg.Timeout)
	}
	return nil
}

// ValidateUploaderConfig checks the uploader endpoint settings.
func ValidateUploaderConfig(uploaderCfg *Uploader) error {
	if uploaderCfg == nil {
		return fmt.Errorf("uploader configuration is nil")
	}
	if uploaderCfg.URL != "" {
		if _, err := url.ParseRequestURI(uploaderCfg.URL); err != nil {
			return fmt.Errorf("invalid uploader url %q: %w", uploaderCfg.URL, err)
		}
	}
	if uploaderCfg.RetryCount < 0 {
		return fmt.Errorf("retry_count must not be negative")
	}
	if uploaderCfg.Timeout == 0 {
		uploaderCfg.Timeout = Duration(10 * time.Second)
	}
	if uploaderCfg.RetryWaitTime == 0 {
		uploaderCfg.RetryWaitTime = Duration(1 * time.Second)
	}
	if uploaderCfg.RetryMaxWaitTime == 0 {
		uploaderCfg.RetryMaxWaitTime = Duration(2 * time.Second)
	}
	return nil
}

func updateHome(cfg *Config) error {
	if cfg.Sentinel.HomeFolder == "" {
		if env := os.Getenv("SENTINEL_HOME"); env != "" {
			cfg.Sentinel.HomeFolder = env
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to resolve user home: %w", err)
			}
			cfg.Sentinel.HomeFolder = filepath.Join(home, ".sentinel")
		}
	}
	expanded, err := files.ExpandPath(cfg.Sentinel.HomeFolder)
	if err != nil {
		return fmt.Errorf("failed to expand home folder: %w", err)
	}
	cfg.Sentinel.HomeFolder = expanded
	return nil
}

// GetResultsHome returns the folder scan records are stored under.
func GetResultsHome(cfg *Config) string {
	if cfg == nil || cfg.Sentinel.ResultsFolder == "" {
		return "results"
	}
	return cfg.Sentinel.ResultsFolder
}
