package envtree

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds the configuration for the environment loader
type Config struct {
	// FileName is the name of the env file to search for (default: ".env")
	FileName string

	// Dir is where the upward search starts (default: working directory)
	Dir string

	// Logger receives one line per load; nil keeps the loader silent
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		FileName: ".env",
	}
}

// Loader handles environment file loading
type Loader struct {
	config *Config
}

// New creates a new Loader with the given configuration
func New(config *Config) *Loader {
	if config == nil {
		config = DefaultConfig()
	}
	if config.FileName == "" {
		config.FileName = ".env"
	}
	return &Loader{config: config}
}

// Load finds the env files and loads them, nearest first. It returns the
// files that were loaded.
func (l *Loader) Load() ([]string, error) {
	envFiles, err := l.Paths()
	if err != nil {
		return nil, err
	}

	if len(envFiles) == 0 {
		l.log("no env files found", "name", l.config.FileName)
		return nil, nil
	}

	if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}

	l.log("loaded env files", "files", envFiles)
	return envFiles, nil
}

// Paths returns the env files from the start directory up to the root
// without loading them
func (l *Loader) Paths() ([]string, error) {
	dir := l.config.Dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = cwd
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	var envFiles []string
	for {
		envPath := filepath.Join(dir, l.config.FileName)
		if info, err := os.Stat(envPath); err == nil && !info.IsDir() {
			envFiles = append(envFiles, envPath)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return envFiles, nil
}

func (l *Loader) log(msg string, args ...any) {
	if l.config.Logger != nil {
		l.config.Logger.Info(msg, args...)
	}
}
