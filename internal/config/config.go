package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/beamly/fastlydash/internal/api"
	"github.com/beamly/fastlydash/internal/storage"
)

const (
	DefaultFilename = "fastly-stats.html"
	DefaultACL      = ACLPublicRead
	DefaultHours    = 24
	DefaultRegion   = storage.DefaultRegion
	DefaultTimeout  = 30 * time.Second
	DefaultAPIRoot  = api.DefaultBaseURL
)

// ACL is a canned access control setting for the uploaded object.
type ACL string

const (
	ACLPrivate                ACL = "private"
	ACLPublicRead             ACL = "public-read"
	ACLProjectPrivate         ACL = "project-private"
	ACLPublicReadWrite        ACL = "public-read-write"
	ACLAuthenticatedRead      ACL = "authenticated-read"
	ACLBucketOwnerRead        ACL = "bucket-owner-read"
	ACLBucketOwnerFullControl ACL = "bucket-owner-full-control"
)

var ACLs = []ACL{
	ACLPrivate,
	ACLPublicRead,
	ACLProjectPrivate,
	ACLPublicReadWrite,
	ACLAuthenticatedRead,
	ACLBucketOwnerRead,
	ACLBucketOwnerFullControl,
}

func (a ACL) Valid() bool {
	for _, known := range ACLs {
		if a == known {
			return true
		}
	}
	return false
}

func ACLNames() []string {
	names := make([]string, len(ACLs))
	for i, a := range ACLs {
		names[i] = string(a)
	}
	return names
}

type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
)

var ErrMissingAPIKey = errors.New("fastly API key is required (positional argument or FASTLY_API_KEY)")

type Config struct {
	APIKey  string
	APIRoot string
	Hours   int
	Timeout time.Duration

	Bucket          string
	Filename        string
	ACL             ACL
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool

	HTMLOut     string
	MetricsFile string
	Output      OutputFormat
	LogLevel    string
}

// UploadEnabled reports whether a destination bucket was configured.
func (c *Config) UploadEnabled() bool {
	return c.Bucket != ""
}

// SetDefaults registers the documented defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api_root", DefaultAPIRoot)
	v.SetDefault("hours", DefaultHours)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("filename", DefaultFilename)
	v.SetDefault("s3acl", string(DefaultACL))
	v.SetDefault("s3region", DefaultRegion)
	v.SetDefault("output", string(OutputTable))
	v.SetDefault("log_level", "info")
}

// NewViper returns a viper instance reading FASTLY_* environment variables
// and, if present, a .env file in the working directory.
func NewViper() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("fastly")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
	return v
}

// ReadConfigFile loads path, or $HOME/.fastlydash.yaml when path is empty.
// A missing default file is not an error.
func ReadConfigFile(v *viper.Viper, path string) (string, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".fastlydash")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading config file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load builds a validated Config from v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		APIKey:  strings.TrimSpace(v.GetString("api_key")),
		APIRoot: v.GetString("api_root"),
		Hours:   v.GetInt("hours"),
		Timeout: v.GetDuration("timeout"),

		Bucket:          strings.TrimSpace(v.GetString("s3bucket")),
		Filename:        v.GetString("filename"),
		ACL:             ACL(v.GetString("s3acl")),
		Region:          v.GetString("s3region"),
		Endpoint:        v.GetString("s3endpoint"),
		AccessKeyID:     v.GetString("s3_access_key_id"),
		SecretAccessKey: v.GetString("s3_secret_access_key"),
		UsePathStyle:    v.GetBool("s3_path_style"),

		HTMLOut:     v.GetString("html_out"),
		MetricsFile: v.GetString("metrics_file"),
		Output:      OutputFormat(strings.ToLower(v.GetString("output"))),
		LogLevel:    v.GetString("log_level"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Hours < 1 {
		return fmt.Errorf("hours must be at least 1, got %d", c.Hours)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if !c.ACL.Valid() {
		return fmt.Errorf("invalid s3acl %q (valid: %s)", c.ACL, strings.Join(ACLNames(), ", "))
	}
	if strings.TrimSpace(c.Filename) == "" {
		return fmt.Errorf("filename must not be empty")
	}
	switch c.Output {
	case OutputTable, OutputJSON:
	default:
		return fmt.Errorf("unknown output format %q (valid: table, json)", c.Output)
	}
	return nil
}
