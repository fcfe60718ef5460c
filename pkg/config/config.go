package config

import (
	"time"

	"vrm-observer/pkg/models"
)

// VRMConfig identifies one appliance to poll. User and Pass override the global debug credentials.
type VRMConfig struct {
	Site string `yaml:"site" json:"site"`
	Name string `yaml:"name" json:"name"`
	Host string `yaml:"host" json:"host"`
	User string `yaml:"user,omitempty" json:"user,omitempty"`
	Pass string `yaml:"pass,omitempty" json:"pass,omitempty"`
}

// AppConfig holds the global application configuration
type AppConfig struct {
	ListenAddr         string           `yaml:"listen_addr"`
	StateDir           string           `yaml:"state_dir"`
	DashboardDir       string           `yaml:"dashboard_dir,omitempty"` // Normalized dashboard copies are written here when set
	DebugUser          string           `yaml:"debug_user"`
	DebugPass          string           `yaml:"debug_pass"`
	Schemes            []string         `yaml:"schemes,omitempty"`
	DebugBasePath      string           `yaml:"debug_base_path,omitempty"`
	DashboardPaths     []string         `yaml:"dashboard_paths,omitempty"`
	MaxConcurrentVRMs  int              `yaml:"max_concurrent_vrms"`
	MaxRequestsPerHost int              `yaml:"max_requests_per_host"`
	DelayPerHost       time.Duration    `yaml:"delay_per_host,omitempty"` // Minimum spacing between requests to one appliance
	MaxRetries         int              `yaml:"max_retries,omitempty"`
	InitialRetryDelay  time.Duration    `yaml:"initial_retry_delay,omitempty"`
	MaxRetryDelay      time.Duration    `yaml:"max_retry_delay,omitempty"`
	ScanTimeout        time.Duration    `yaml:"scan_timeout,omitempty"` // Whole-fleet deadline (0 = none)
	InsecureSkipVerify bool             `yaml:"insecure_skip_verify,omitempty"`
	PersistDashboards  bool             `yaml:"persist_dashboards,omitempty"`
	WatchInterval      string           `yaml:"watch_interval,omitempty"`
	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`
	VRMs               []VRMConfig      `yaml:"vrms"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`                 // Per-attempt request timeout
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// DefaultDashboardPaths are tried in order when dashboard_paths is empty
var DefaultDashboardPaths = []string{"/status.mhtml", "/status.htm", "/index.htm"}

// ToVRM converts the config entry into the model used by the engine
func (v VRMConfig) ToVRM() models.VRM {
	return models.VRM{Site: v.Site, Name: v.Name, Host: v.Host, User: v.User, Pass: v.Pass}
}

// VRMList returns every configured appliance as engine models
func (c *AppConfig) VRMList() []models.VRM {
	vrms := make([]models.VRM, 0, len(c.VRMs))
	for _, v := range c.VRMs {
		vrms = append(vrms, v.ToVRM())
	}
	return vrms
}

// GetEffectiveCredentials returns the appliance's own credentials, falling back to the global ones
func GetEffectiveCredentials(vrm models.VRM, appCfg AppConfig) (user, pass string) {
	user, pass = vrm.User, vrm.Pass
	if user == "" {
		user = appCfg.DebugUser
	}
	if pass == "" {
		pass = appCfg.DebugPass
	}
	return user, pass
}
