package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	// ZoteroConfig describes access to the upstream Zotero web API.
	ZoteroConfig struct {
		APIBase string       `yaml:"api_base" validate:"required,url"`
		UserID  string       `yaml:"user_id" validate:"omitempty,numeric"`
		APIKey  SecretString `yaml:"api_key"`
		Timeout int          `yaml:"timeout" validate:"min=1"`
	}

	// ImagesConfig controls how image attachments are materialized.
	ImagesConfig struct {
		Dir           string `yaml:"dir" validate:"required"`
		FullSizeBound int    `yaml:"full_size_bound" validate:"min=16"`
		JPEGQuality   int    `yaml:"jpeg_quality_level" validate:"min=40,max=100"`
	}

	// SiteConfig controls generated page layout and naming.
	SiteConfig struct {
		OutputName  string       `yaml:"output_name" validate:"required"`
		MainTextTag string       `yaml:"main_text_tag" validate:"required"`
		HeadTitle   string       `yaml:"head_item_title" validate:"required"`
		Images      ImagesConfig `yaml:"images"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Zotero    ZoteroConfig   `yaml:"zotero"`
		Site      SiteConfig     `yaml:"site"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

// RequestTimeout returns API call timeout as a duration.
func (conf *ZoteroConfig) RequestTimeout() time.Duration {
	return time.Duration(conf.Timeout) * time.Second
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
