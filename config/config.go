// Package config reads gallery settings from an optional config file,
// an optional settings.env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	StorageFS = "fs"
	StorageB2 = "b2"
	StorageS3 = "s3"

	SourceDocument = "document"
	SourceHTTP     = "http"
	SourceSQLite   = "sqlite"

	SinkDocument = "document"
	SinkSQLite   = "sqlite"
	SinkLog      = "log"
)

type Config struct {
	Storage  string `mapstructure:"storage"`
	Source   string `mapstructure:"source"`
	Sink     string `mapstructure:"sink"`
	Document string `mapstructure:"document"`
	DataDir  string `mapstructure:"data_dir"`

	EncryptionKey string `mapstructure:"encryption_key"`

	B2AccountID  string `mapstructure:"b2_account_id"`
	B2AccountKey string `mapstructure:"b2_account_key"`
	B2Bucket     string `mapstructure:"b2_bucket"`

	S3Bucket    string `mapstructure:"s3_bucket"`
	S3Region    string `mapstructure:"s3_region"`
	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3PathStyle bool   `mapstructure:"s3_path_style"`

	SourceURL  string `mapstructure:"source_url"`
	SQLitePath string `mapstructure:"sqlite_path"`

	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	LogFile  string `mapstructure:"log_file"`
	LogLevel string `mapstructure:"log_level"`
}

var defaults = map[string]interface{}{
	"storage":        StorageFS,
	"source":         SourceDocument,
	"sink":           SinkDocument,
	"document":       "database.json",
	"data_dir":       ".",
	"encryption_key": "",
	"b2_account_id":  "",
	"b2_account_key": "",
	"b2_bucket":      "",
	"s3_bucket":      "",
	"s3_region":      "us-east-1",
	"s3_endpoint":    "",
	"s3_path_style":  false,
	"source_url":     "",
	"sqlite_path":    "gallery.db",
	"addr":           ":5000",
	"username":       "",
	"password":       "",
	"log_file":       "",
	"log_level":      "info",
}

// legacyEnv maps keys to the variable names the B2 tooling already uses.
var legacyEnv = map[string]string{
	"encryption_key": "ENCR_KEY",
	"b2_account_id":  "B2_ACCOUNT_ID",
	"b2_account_key": "B2_ACCOUNT_KEY",
	"b2_bucket":      "B2_BUCKET_NAME",
}

// New returns a viper instance with defaults and environment bindings.
// Environment variables are GALLERY_ followed by the upper cased key.
func New() *viper.Viper {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvPrefix("gallery")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for k, env := range legacyEnv {
		v.BindEnv(k, "GALLERY_"+strings.ToUpper(k), env)
	}
	return v
}

// ReadConfigFile reads cfgFile, or $HOME/.gallery.yaml when cfgFile is
// empty. A missing default file is not an error.
func ReadConfigFile(v *viper.Viper, cfgFile string) (string, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return "", err
		}
		v.AddConfigPath(home)
		v.SetConfigName(".gallery")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &nf) {
			return "", nil
		}
		return "", fmt.Errorf("reading config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// LoadEnvFile loads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is ignored.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch c.Storage {
	case StorageFS:
	case StorageB2:
		if c.B2AccountID == "" || c.B2AccountKey == "" || c.B2Bucket == "" {
			return errors.New("b2 storage requires b2_account_id, b2_account_key and b2_bucket")
		}
	case StorageS3:
		if c.S3Bucket == "" {
			return errors.New("s3 storage requires s3_bucket")
		}
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	switch c.Source {
	case SourceDocument, SourceSQLite:
	case SourceHTTP:
		if c.SourceURL == "" {
			return errors.New("http source requires source_url")
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}
	switch c.Sink {
	case SinkDocument, SinkSQLite, SinkLog:
	default:
		return fmt.Errorf("unknown sink %q", c.Sink)
	}
	if c.Document == "" {
		return errors.New("document must not be empty")
	}
	return nil
}

// DocumentPath is the document location for the fs storage; other
// storages use Document as the object name.
func (c *Config) DocumentPath() string {
	if c.Storage != StorageFS || filepath.IsAbs(c.Document) {
		return c.Document
	}
	return filepath.Join(c.DataDir, c.Document)
}
