package conf

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/redhatinsights/overdrop"
)

func init() {
	sources := &ConfigSource{
		Path:      "/etc/overdrop/config.toml",
		DropInDir: "/etc/overdrop/config.toml.d/",
	}
	config, err := sources.Read()
	if err != nil {
		dto, parseErr := parseConfigDTO(defaultConfig)
		if parseErr != nil {
			panic(fmt.Sprintf("failed to parse embedded defaults: %v", parseErr))
		}
		config.Update(dto)
	}
	Configuration = config
}

// defaultConfig contains the embedded default configuration file.
// This file is compiled into the binary and serves as the base layer
// of configuration before /etc/overdrop/config.toml and drop-in files
// are applied.
//
//go:embed defaults.toml
var defaultConfig string

// Configuration is the global immutable state.
var Configuration Config

// Config represents the immutable public configuration object.
type Config struct {
	LogLevel       slog.Level
	BaseDirs       []string
	SharedPath     string
	Extensions     []string
	IgnoreDotfiles bool
}

// Update applies non-nil values from a configDTO.
func (c *Config) Update(dto configDTO) {
	if dto.LogLevel != nil {
		switch *dto.LogLevel {
		case "DEBUG":
			c.LogLevel = slog.LevelDebug
		case "INFO":
			c.LogLevel = slog.LevelInfo
		case "WARN":
			c.LogLevel = slog.LevelWarn
		case "ERROR":
			c.LogLevel = slog.LevelError
		}
	}
	if dto.BaseDirs != nil {
		c.BaseDirs = *dto.BaseDirs
	}
	if dto.SharedPath != nil {
		c.SharedPath = *dto.SharedPath
	}
	if dto.Extensions != nil {
		c.Extensions = *dto.Extensions
	}
	if dto.IgnoreDotfiles != nil {
		c.IgnoreDotfiles = *dto.IgnoreDotfiles
	}
}

// ConfigSource orchestrates loading configuration from multiple sources.
// See the Read method.
type ConfigSource struct {
	Path      string
	DropInDir string
}

// Read loads and returns the complete Config by merging all layers:
// 1. Embedded defaults
// 2. Main configuration file
// 3. Drop-in files
func (cs *ConfigSource) Read() (Config, error) {
	resolved := Config{}

	// Start with embedded defaults
	dto, err := parseConfigDTO(defaultConfig)
	if err != nil {
		slog.Error("failed to parse embedded defaults", "error", err)
		return resolved, fmt.Errorf("failed to parse embedded defaults: %w", err)
	}
	resolved.Update(dto)

	// Load main configuration file
	data, err := os.ReadFile(cs.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			// Existing but malformed file should result in failure (let's not hide
			// problems from the users).
			return resolved, fmt.Errorf("failed to load %s: %w", cs.Path, err)
		}
	} else {
		mainDTO, err := parseConfigDTO(string(data))
		if err != nil {
			// Existing but malformed file should result in failure (let's not hide
			// problems from the users).
			return resolved, fmt.Errorf("failed to parse %s: %w", cs.Path, err)
		}
		resolved.Update(mainDTO)
	}

	// Load drop-in files
	dropInDTOs, err := cs.parseDropInFiles()
	if err != nil {
		slog.Error("failed to load drop-in files", "error", err, "dir", cs.DropInDir)
		return resolved, err
	}

	// Apply each drop-in file in order
	for _, dropInDTO := range dropInDTOs {
		resolved.Update(dropInDTO)
	}

	return resolved, nil
}

type configDTO struct {
	LogLevel       *string   `toml:"log-level"`
	BaseDirs       *[]string `toml:"base-dirs"`
	SharedPath     *string   `toml:"shared-path"`
	Extensions     *[]string `toml:"extensions"`
	IgnoreDotfiles *bool     `toml:"ignore-dotfiles"`
}

// parseConfigDTO parses a TOML string into a configDTO.
func parseConfigDTO(data string) (configDTO, error) {
	var dto configDTO

	if err := toml.Unmarshal([]byte(data), &dto); err != nil {
		return dto, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return dto, nil
}

// parseDropInFiles resolves and parses the drop-in .toml files through the
// fragment scanner. A missing drop-in directory yields no DTOs and no error;
// a present but malformed drop-in file is an error.
func (cs *ConfigSource) parseDropInFiles() ([]configDTO, error) {
	scanner := overdrop.NewFragmentScanner([]string{cs.DropInDir}, "", false, []string{"toml"})
	fragments := scanner.Scan()

	return overdrop.Merge(fragments, nil, func(dtos []configDTO, name string, r io.Reader) ([]configDTO, error) {
		data, err := io.ReadAll(r)
		if err != nil {
			return dtos, err
		}
		dto, err := parseConfigDTO(string(data))
		if err != nil {
			return dtos, err
		}
		return append(dtos, dto), nil
	})
}
