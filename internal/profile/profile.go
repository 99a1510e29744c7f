package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read into a Profile.
const EnvPrefix = "CONFAGENDA"

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where confagenda stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// LogFile enables rotating file logging when set. Empty means stderr.
	LogFile string
	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// ConferenceFile is a YAML file describing the conference dates and timezone.
	// Empty means the built-in default conference.
	ConferenceFile string
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// NewViper returns a viper instance with defaults and CONFAGENDA_* env binding.
// Callers may bind command-line flags onto it before calling FromViper.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "dev")
	v.SetDefault("addr", "")
	v.SetDefault("port", 8081)
	v.SetDefault("data", ".")
	v.SetDefault("driver", "sqlite")
	v.SetDefault("dsn", "")
	v.SetDefault("log-file", "")
	v.SetDefault("log-level", "info")
	v.SetDefault("conference", "")
	return v
}

// FromViper builds a profile from a configured viper instance.
func FromViper(v *viper.Viper) *Profile {
	return &Profile{
		Mode:           v.GetString("mode"),
		Addr:           v.GetString("addr"),
		Port:           v.GetInt("port"),
		Data:           v.GetString("data"),
		Driver:         v.GetString("driver"),
		DSN:            v.GetString("dsn"),
		LogFile:        v.GetString("log-file"),
		LogLevel:       v.GetString("log-level"),
		ConferenceFile: v.GetString("conference"),
	}
}

// FromEnv loads configuration from CONFAGENDA_* environment variables.
// Fields already set on the profile are kept when the variable is absent.
func (p *Profile) FromEnv() {
	loaded := FromViper(NewViper())
	setIfEnv := func(key string, dst *string, value string) {
		if _, ok := os.LookupEnv(EnvPrefix + "_" + key); ok || *dst == "" {
			*dst = value
		}
	}
	setIfEnv("MODE", &p.Mode, loaded.Mode)
	setIfEnv("ADDR", &p.Addr, loaded.Addr)
	setIfEnv("DATA", &p.Data, loaded.Data)
	setIfEnv("DRIVER", &p.Driver, loaded.Driver)
	setIfEnv("DSN", &p.DSN, loaded.DSN)
	setIfEnv("LOG_FILE", &p.LogFile, loaded.LogFile)
	setIfEnv("LOG_LEVEL", &p.LogLevel, loaded.LogLevel)
	setIfEnv("CONFERENCE", &p.ConferenceFile, loaded.ConferenceFile)
	if _, ok := os.LookupEnv(EnvPrefix + "_PORT"); ok || p.Port == 0 {
		p.Port = loaded.Port
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q: only sqlite and postgres are supported", p.Driver)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for the postgres driver")
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "confagenda")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/confagenda"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("confagenda_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
