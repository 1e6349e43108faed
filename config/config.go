// config/config.go
package config

import (
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/asinfra/adconsole/errors"
)

// Configuration stores all the configurations
type Configuration struct {
	Server        ServerConfiguration
	Backend       BackendConfiguration
	Directory     DirectoryConfig
	Redis         RedisConfiguration
	Elasticsearch ElasticsearchConfiguration
}

// ServerConfiguration stores the port and other web server settings
type ServerConfiguration struct {
	Port string
}

// BackendConfiguration selects the active storage backend ("memory" or
// "directory").
type BackendConfiguration struct {
	Mode string
}

// RedisConfiguration stores data for Redis connection
type RedisConfiguration struct {
	Addr            string
	DefaultCacheTTL string
}

// ElasticsearchConfiguration stores data for Elasticsearch connection
type ElasticsearchConfiguration struct {
	URL string
}

// DirectoryConfig holds the connection parameters for one directory domain.
// Bind credentials have no defaults: they must be provisioned explicitly and
// their absence fails validation before any connection is attempted.
type DirectoryConfig struct {
	URL          string
	BaseDN       string
	BindUser     string
	BindPassword string
	SearchBase   string
	SearchFilter string
	PageSize     uint32
}

// Validate checks the configuration eagerly so a bad domain fails at startup
// or switch time rather than on the first call.
func (c DirectoryConfig) Validate() error {
	var missing []string
	if c.URL == "" {
		missing = append(missing, "directory.url")
	} else if u, err := url.Parse(c.URL); err != nil || (u.Scheme != "ldap" && u.Scheme != "ldaps") {
		return apperrors.NewInvalidInput("must be an ldap:// or ldaps:// URL", "directory.url")
	}
	if c.BaseDN == "" {
		missing = append(missing, "directory.baseDN")
	}
	if c.BindUser == "" {
		missing = append(missing, "directory.bindUser")
	}
	if c.BindPassword == "" {
		missing = append(missing, "directory.bindPassword")
	}
	if len(missing) > 0 {
		return apperrors.NewInvalidInput("required", missing...)
	}
	return nil
}

// WithDefaults fills the optional fields from the required ones.
func (c DirectoryConfig) WithDefaults() DirectoryConfig {
	if c.SearchBase == "" {
		c.SearchBase = c.BaseDN
	}
	if c.PageSize == 0 {
		c.PageSize = 500
	}
	return c
}

var config *Configuration

func InitConfig() error {
	viper.AddConfigPath("config") // path to look for the config file in
	viper.SetConfigName("config") // name of the config file (without extension)
	viper.SetConfigType("yaml")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// Bind credentials are intentionally defaulted to nothing; they come
	// from the config file or the AD_* environment variables.
	viper.BindEnv("directory.url", "AD_URL")
	viper.BindEnv("directory.baseDN", "AD_BASE_DN")
	viper.BindEnv("directory.bindUser", "AD_BIND_USER")
	viper.BindEnv("directory.bindPassword", "AD_BIND_PASSWORD")
	viper.BindEnv("directory.searchBase", "AD_SEARCH_BASE")
	viper.BindEnv("directory.searchFilter", "AD_SEARCH_FILTER")

	// Set default configurations
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("backend.mode", "directory")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.defaultCacheTTL", "10m")
	viper.SetDefault("elasticsearch.url", "http://localhost:9200")
	viper.SetDefault("auth.sessionTTL", "8h")
	viper.SetDefault("log.file", "logging/api.log")

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found. Using default settings and environment variables.")
		} else {
			return err
		}
	}

	// Unmarshal the configuration into the Configuration struct
	err := viper.Unmarshal(&config)
	if err != nil {
		return err
	}

	return nil
}

// Directory returns the validated connection parameters for a domain. The
// empty domain selects the top-level directory.* block; named domains live
// under directory.domains.<name>.
func Directory(domain string) (DirectoryConfig, error) {
	prefix := "directory"
	if domain != "" {
		prefix = "directory.domains." + domain
	}
	cfg := DirectoryConfig{
		URL:          viper.GetString(prefix + ".url"),
		BaseDN:       viper.GetString(prefix + ".baseDN"),
		BindUser:     viper.GetString(prefix + ".bindUser"),
		BindPassword: viper.GetString(prefix + ".bindPassword"),
		SearchBase:   viper.GetString(prefix + ".searchBase"),
		SearchFilter: viper.GetString(prefix + ".searchFilter"),
		PageSize:     viper.GetUint32(prefix + ".pageSize"),
	}
	if err := cfg.Validate(); err != nil {
		return DirectoryConfig{}, err
	}
	return cfg.WithDefaults(), nil
}

// GetConfig returns the loaded configuration
func GetConfig() *Configuration {
	return config
}

// GetString retrieves a string value from the configuration
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt retrieves an integer value from the configuration
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool retrieves a boolean value from the configuration
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration retrieves a duration value from the configuration
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
