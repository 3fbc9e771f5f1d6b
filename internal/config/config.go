// Package config holds the service configuration: a YAML file layered over
// defaults, with environment overrides applied last.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"compensation-engine/internal/paramtable"
	"compensation-engine/internal/render"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Tables  TablesConfig  `yaml:"tables"`
	Render  RenderConfig  `yaml:"render"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Port        string `yaml:"port"`
	ReadTimeout string `yaml:"read_timeout"`
}

// TablesConfig lists where parameter tables are loaded from. All sources
// are combined into one snapshot; a key defined twice is a load error.
type TablesConfig struct {
	Embedded    bool           `yaml:"embedded"`
	Files       []string       `yaml:"files"`
	Database    DatabaseConfig `yaml:"database"`
	RegistryURL string         `yaml:"registry_url"`
	Watch       bool           `yaml:"watch"`
	Debounce    string         `yaml:"debounce"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, pgx
	DSN    string `yaml:"dsn"`
	Query  string `yaml:"query"`
}

type RenderConfig struct {
	Format    string `yaml:"format"` // docx, markdown, html
	Title     string `yaml:"title"`
	Footer    string `yaml:"footer"`
	OutputDir string `yaml:"output_dir"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

func DefaultConfig() *Config {
	tpl := render.DefaultTemplate()
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			ReadTimeout: "10s",
		},
		Tables: TablesConfig{
			Embedded: true,
			Debounce: "500ms",
		},
		Render: RenderConfig{
			Format:    string(tpl.Format),
			Title:     tpl.Title,
			Footer:    tpl.Footer,
			OutputDir: "out",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadDotEnv loads variables from a .env file into the process environment
// without overriding variables that are already set. A missing file is
// ignored.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if url := os.Getenv("TABLE_REGISTRY_URL"); url != "" {
		c.Tables.RegistryURL = url
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Tables.Database.DSN = dsn
		c.Tables.Database.Driver = driverFor(dsn)
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if dir := os.Getenv("RENDER_OUTPUT_DIR"); dir != "" {
		c.Render.OutputDir = dir
	}
}

func driverFor(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "pgx"
	}
	return "sqlite"
}

// Validate checks the values Load cannot: numeric port, known format and
// at least one table source.
func (c *Config) Validate() error {
	if n, err := strconv.Atoi(c.Server.Port); err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("invalid server port %q", c.Server.Port)
	}
	if _, err := render.ParseFormat(c.Render.Format); err != nil {
		return err
	}
	if !c.Tables.Embedded && len(c.Tables.Files) == 0 && c.Tables.Database.DSN == "" && c.Tables.RegistryURL == "" {
		return fmt.Errorf("no parameter table sources configured")
	}
	if c.Tables.Database.DSN != "" && c.Tables.Database.Driver != "sqlite" && c.Tables.Database.Driver != "pgx" {
		return fmt.Errorf("invalid database driver %q (valid: sqlite, pgx)", c.Tables.Database.Driver)
	}
	return nil
}

// Sources builds the table sources in the order they are loaded.
func (c *Config) Sources() ([]paramtable.Source, error) {
	var sources []paramtable.Source
	if c.Tables.Embedded {
		sources = append(sources, paramtable.Embedded())
	}
	for _, f := range c.Tables.Files {
		src, err := FileSource(f)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if db := c.Tables.Database; db.DSN != "" {
		driver := db.Driver
		if driver == "" {
			driver = driverFor(db.DSN)
		}
		sources = append(sources, paramtable.SQLSource{Driver: driver, DSN: db.DSN, Query: db.Query})
	}
	if c.Tables.RegistryURL != "" {
		sources = append(sources, paramtable.NewRegistrySource(c.Tables.RegistryURL))
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no parameter table sources configured")
	}
	return sources, nil
}

// FileSource picks the table source for a local file by its extension.
func FileSource(path string) (paramtable.Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return paramtable.YAMLFile{File: path}, nil
	case ".csv":
		return paramtable.CSVFile{File: path}, nil
	default:
		return nil, fmt.Errorf("unsupported table file %q", path)
	}
}

func (c *Config) Template() (render.Template, error) {
	format, err := render.ParseFormat(c.Render.Format)
	if err != nil {
		return render.Template{}, err
	}
	return render.Template{Format: format, Title: c.Render.Title, Footer: c.Render.Footer}, nil
}

func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Tables.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

func (c *Config) GetReadTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ReadTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
