package deck

import "strings"

// Config holds configuration for the Nextcloud Deck API connection.
type Config struct {
	// Host is the Nextcloud hostname, without scheme (e.g. cloud.example.com).
	Host string `mapstructure:"host" default:""`
	// Username is the Nextcloud account used for basic auth.
	Username string `mapstructure:"username" default:""`
	// Password is the account password or an app password.
	Password string `mapstructure:"password" default:""`
	// UseSSL indicates whether to reach the server over HTTPS.
	UseSSL bool `mapstructure:"use_ssl" default:"true"`
	// TimeoutSeconds is the per-request timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// BaseURL returns the Deck API v1.0 base URL for this configuration.
func (c Config) BaseURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}
	host := strings.TrimPrefix(c.Host, "http://")
	host = strings.TrimPrefix(host, "https://")
	return scheme + "://" + host + "/index.php/apps/deck/api/v1.0/"
}
