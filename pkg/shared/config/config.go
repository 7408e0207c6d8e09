package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Duration is a time.Duration that decodes from YAML strings like "30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

type Config struct {
	Logger   Logger   `yaml:"logger"`
	Sentinel Sentinel `yaml:"sentinel"`
	Scan     Scan     `yaml:"scan"`
	Uploader Uploader `yaml:"uploader"`
}

type Logger struct {
	Level string `yaml:"level"`
}

// Sentinel holds the base folders for durable state.
type Sentinel struct {
	HomeFolder    string `yaml:"home_folder"`
	ResultsFolder string `yaml:"results_folder"`
}

// Scan holds defaults applied when a scan command omits the corresponding flag.
type Scan struct {
	SeverityThreshold string   `yaml:"severity_threshold"`
	Agents            []string `yaml:"agents"`
	Timeout           Duration `yaml:"timeout"`
	IncludeSuppressed bool     `yaml:"include_suppressed"`
}

// Uploader configures the optional findings-upload endpoint.
type Uploader struct {
	URL              string   `yaml:"url"`
	Token            string   `yaml:"token"`
	Debug            bool     `yaml:"debug"`
	RetryCount       int      `yaml:"retry_count"`
	RetryWaitTime    Duration `yaml:"retry_wait_time"`
	RetryMaxWaitTime Duration `yaml:"retry_max_wait_time"`
	Timeout          Duration `yaml:"timeout"`
}

func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// LoadConfig reads the YAML config at path. A missing file is not an error:
// the returned config carries zero values and validation fills in defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	if err := LoadYAML(configPath, &config); err != nil {
		return nil, err
	}

	return config, nil
}
