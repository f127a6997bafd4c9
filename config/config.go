// config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/gewnthar/rfiarchive/models"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // mysql or sqlite
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	// Path is the database file when Driver is sqlite.
	Path string `yaml:"path"`
}

// TablesConfig names the archive tables.
type TablesConfig struct {
	Main             string `yaml:"main"`
	Dirty            string `yaml:"dirty"`
	DuplicateCatalog string `yaml:"duplicate_catalog"`
	LatestProjects   string `yaml:"latest_projects"`
	IngestLog        string `yaml:"ingest_log"`
}

// MandatoryFieldsConfig lists canonical field names.
type MandatoryFieldsConfig struct {
	MandatoryColumns    []string `yaml:"mandatory_columns"`
	PrimaryCompositeKey []string `yaml:"primary_composite_key"`
}

type IngestConfig struct {
	Directory string `yaml:"directory"`
	// Selection keeps only files whose name contains one of the entries.
	Selection []string `yaml:"selection"`
}

type RemoteConfig struct {
	IndexURL    string        `yaml:"index_url"`
	DownloadDir string        `yaml:"download_dir"`
	TimeoutStr  string        `yaml:"timeout"`
	Timeout     time.Duration `yaml:"-"` // Parsed duration
}

type LoggingConfig struct {
	Development bool   `yaml:"development"`
	Level       string `yaml:"level"`
}

type Config struct {
	Server          ServerConfig          `yaml:"server"`
	Database        DatabaseConfig        `yaml:"database"`
	Tables          TablesConfig          `yaml:"tables"`
	MandatoryFields MandatoryFieldsConfig `yaml:"mandatory_fields"`
	Ingest          IngestConfig          `yaml:"ingest"`
	Remote          RemoteConfig          `yaml:"remote"`
	Logging         LoggingConfig         `yaml:"logging"`
}

// Environment variables that override the YAML database settings.
const (
	EnvDBUser     = "RFI_DB_USER"
	EnvDBPassword = "RFI_DB_PASSWORD"
	EnvDBHost     = "RFI_DB_HOST"
	EnvDBName     = "RFI_DB_NAME"
)

// DefaultPaths are tried in order when no config path is given.
var DefaultPaths = []string{
	"config.yaml",
	"config/config.yaml",
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Default returns the configuration used for anything the YAML file leaves out.
func Default() Config {
	return Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Driver: DriverMySQL, Host: "localhost", Port: "3306", DBName: "jskipper"},
		Tables: TablesConfig{
			Main:             "RFI",
			Dirty:            "RFI_dirty",
			DuplicateCatalog: "duplicate_data_catalog",
			LatestProjects:   "latest_projects",
			IngestLog:        "ingest_log",
		},
		MandatoryFields: MandatoryFieldsConfig{
			MandatoryColumns:    []string{string(models.FieldFrequency), string(models.FieldIntensity)},
			PrimaryCompositeKey: []string{string(models.FieldFrequency), string(models.FieldIntensity), string(models.FieldMJD)},
		},
		Ingest: IngestConfig{Directory: "."},
		Remote: RemoteConfig{DownloadDir: ".", TimeoutStr: "30s"},
	}
}

// Load reads the YAML file at path (or the first of DefaultPaths when path is empty),
// applies .env and environment overrides, and validates the result.
func Load(path string) (Config, error) {
	if path == "" {
		for _, p := range DefaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
		if path == "" {
			return Config{}, fmt.Errorf("config.yaml not found in standard locations")
		}
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(file)
	if err != nil {
		return Config{}, err
	}

	// A missing .env is fine; credentials may come from the real environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default and parses durations.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Remote.TimeoutStr != "" {
		d, err := time.ParseDuration(cfg.Remote.TimeoutStr)
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse remote timeout: %w", err)
		}
		cfg.Remote.Timeout = d
	} else {
		cfg.Remote.Timeout = 30 * time.Second
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	for env, dst := range map[string]*string{
		EnvDBUser:     &c.Database.User,
		EnvDBPassword: &c.Database.Password,
		EnvDBHost:     &c.Database.Host,
		EnvDBName:     &c.Database.DBName,
	} {
		if v, ok := lookup(env); ok && v != "" {
			*dst = v
		}
	}
}

// Validate checks field lists and table names.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverMySQL:
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	for name, table := range map[string]string{
		"tables.main":              c.Tables.Main,
		"tables.dirty":             c.Tables.Dirty,
		"tables.duplicate_catalog": c.Tables.DuplicateCatalog,
		"tables.latest_projects":   c.Tables.LatestProjects,
		"tables.ingest_log":        c.Tables.IngestLog,
	} {
		if !identifierPattern.MatchString(table) {
			return fmt.Errorf("%s: invalid table name %q", name, table)
		}
		if strings.HasPrefix(strings.ToLower(table), models.KeyTablePrefix) {
			return fmt.Errorf("%s: prefix %q is reserved for key tables", name, models.KeyTablePrefix)
		}
	}

	if _, err := parseFields(c.MandatoryFields.MandatoryColumns); err != nil {
		return fmt.Errorf("mandatory_columns: %w", err)
	}
	key, err := parseFields(c.MandatoryFields.PrimaryCompositeKey)
	if err != nil {
		return fmt.Errorf("primary_composite_key: %w", err)
	}
	if len(key) == 0 {
		return fmt.Errorf("primary_composite_key must not be empty")
	}
	return nil
}

// MandatoryColumns returns the mandatory columns as fields. Call on a validated Config.
func (c Config) MandatoryColumns() []models.Field {
	f, _ := parseFields(c.MandatoryFields.MandatoryColumns)
	return f
}

// CompositeKey returns the primary composite key as fields. Call on a validated Config.
func (c Config) CompositeKey() []models.Field {
	f, _ := parseFields(c.MandatoryFields.PrimaryCompositeKey)
	return f
}

func parseFields(names []string) ([]models.Field, error) {
	out := make([]models.Field, 0, len(names))
	for _, n := range names {
		f, err := models.ParseField(n)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
