// BYZRA ⸻ internal/config/config.go
// config loading & management

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"photofix/internal/formats"
)

const FileName = "photofix.toml"

// run configuration, passed explicitly to every component
type Config struct {
	Paths struct {
		Input        string `toml:"input"`
		Output       string `toml:"output"`
		ExifTool     string `toml:"exiftool"`
		ArgsFile     string `toml:"args_file"`
		StdoutLog    string `toml:"stdout_log"`
		StderrLog    string `toml:"stderr_log"`
		Associations string `toml:"associations"`
		RunLog       string `toml:"run_log"`
		Profile      string `toml:"profile"`
	} `toml:"paths"`
	Media struct {
		Photo []string `toml:"photo"`
		Video []string `toml:"video"`
	} `toml:"media"`
	Run struct {
		Workers      int    `toml:"workers"`
		WriteZeroGPS bool   `toml:"write_zero_gps"`
		Verify       bool   `toml:"verify"`
		LogLevel     string `toml:"log_level"`
	} `toml:"run"`
	Watch struct {
		Paths      []string `toml:"paths"`
		MinFileAge string   `toml:"min_file_age"`
	} `toml:"watch"`
}

// search order when no explicit path is given
func SearchPaths() []string {
	return []string{
		filepath.Join("config", FileName),
		"./" + FileName,
		filepath.Join(homeDir(), ".photofix/config", FileName),
	}
}

// loads the config from path, or from the search paths when path is empty.
// A missing file gives the defaults; a broken file is an error.
func Load(path string) (*Config, string, error) {
	if path == "" {
		for _, p := range SearchPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	cfg := Default()
	if path == "" {
		return cfg, "", nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, path, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	// drop commented-out entries
	var active []string
	for _, p := range cfg.Watch.Paths {
		if len(p) > 0 && p[0] != '#' {
			active = append(active, p)
		}
	}
	cfg.Watch.Paths = active

	return cfg, path, nil
}

// default config values; every auxiliary file lives under the state dir
func Default() *Config {
	cfg := &Config{}
	state := StateDir()

	cfg.Paths.Output = filepath.Join(homeDir(), "photofix-output")
	cfg.Paths.ExifTool = "exiftool"
	cfg.Paths.ArgsFile = filepath.Join(state, "exiftool_arguments.txt")
	cfg.Paths.StdoutLog = filepath.Join(state, "exiftool_output_log.txt")
	cfg.Paths.StderrLog = filepath.Join(state, "exiftool_output_errors.txt")
	cfg.Paths.Associations = filepath.Join(state, "media_files.toml")
	cfg.Paths.RunLog = filepath.Join(state, "logs", "photofix.log")

	cfg.Media.Photo = slices.Clone(formats.PhotoExtensions)
	cfg.Media.Video = slices.Clone(formats.VideoExtensions)

	cfg.Run.Workers = runtime.NumCPU()
	cfg.Run.LogLevel = "info"

	cfg.Watch.MinFileAge = "2s"
	return cfg
}

// checks the values a run depends on
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.Input) == "" {
		return fmt.Errorf("input path is not set")
	}
	if strings.TrimSpace(c.Paths.Output) == "" {
		return fmt.Errorf("output path is not set")
	}
	if c.Run.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Run.Workers)
	}
	if len(c.Media.Photo)+len(c.Media.Video) == 0 {
		return fmt.Errorf("no media extensions configured")
	}
	if _, err := c.Table(); err != nil {
		return err
	}
	if filepath.Clean(c.Paths.Input) == filepath.Clean(c.Paths.Output) {
		return fmt.Errorf("output path must differ from input path")
	}
	return nil
}

// extension lookup table for this config
func (c *Config) Table() (*formats.Table, error) {
	return formats.NewTable(c.Media.Photo, c.Media.Video)
}

// saves the current configuration to a file
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// per-user state directory
func StateDir() string {
	return filepath.Join(homeDir(), ".photofix")
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.TempDir()
}
