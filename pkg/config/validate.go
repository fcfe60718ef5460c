package config

import (
	"fmt"
	"strings"
	"time"

	"vrm-observer/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	if c.ListenAddr == "" {
		c.ListenAddr = ":3000"
	}

	if c.StateDir == "" {
		warnings = append(warnings, "state_dir is empty, defaulting to './vrm_state'")
		c.StateDir = "./vrm_state"
	}

	if c.DebugUser == "" {
		warnings = append(warnings, "debug_user is empty, appliances without their own user will be queried anonymously")
	}

	// Schemes
	if len(c.Schemes) == 0 {
		c.Schemes = []string{"http", "https"}
	}
	for i, s := range c.Schemes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "http" && s != "https" {
			return warnings, fmt.Errorf("%w: unsupported scheme %q", utils.ErrConfigValidation, c.Schemes[i])
		}
		c.Schemes[i] = s
	}

	// DebugBasePath normalization
	if c.DebugBasePath == "" {
		c.DebugBasePath = "/dbg"
	} else if c.DebugBasePath[0] != '/' {
		c.DebugBasePath = "/" + c.DebugBasePath
	}
	c.DebugBasePath = strings.TrimRight(c.DebugBasePath, "/")
	if c.DebugBasePath == "" {
		c.DebugBasePath = "/"
	}

	if len(c.DashboardPaths) == 0 {
		c.DashboardPaths = append([]string(nil), DefaultDashboardPaths...)
	}

	if c.MaxConcurrentVRMs <= 0 {
		warnings = append(warnings, "max_concurrent_vrms should be > 0, defaulting to 4")
		c.MaxConcurrentVRMs = 4
	}

	if c.MaxRequestsPerHost <= 0 {
		warnings = append(warnings, "max_requests_per_host should be > 0, defaulting to 2")
		c.MaxRequestsPerHost = 2
	}

	if c.DelayPerHost < 0 {
		warnings = append(warnings, "delay_per_host cannot be negative, disabling request spacing")
		c.DelayPerHost = 0
	}

	// MaxRetries
	if c.MaxRetries < 0 {
		warnings = append(warnings, "max_retries cannot be negative, setting to 0")
		c.MaxRetries = 0
	}
	if c.MaxRetries == 0 && c.InitialRetryDelay == 0 {
		c.MaxRetries = 1
	}

	// Retry delays (only if retries enabled)
	if c.MaxRetries > 0 {
		if c.InitialRetryDelay <= 0 {
			c.InitialRetryDelay = 500 * time.Millisecond
		}
		if c.MaxRetryDelay <= 0 {
			c.MaxRetryDelay = 5 * time.Second
		}
	}

	if c.InitialRetryDelay > c.MaxRetryDelay && c.MaxRetryDelay > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"initial_retry_delay (%v) > max_retry_delay (%v), using max_retry_delay for initial",
			c.InitialRetryDelay, c.MaxRetryDelay))
		c.InitialRetryDelay = c.MaxRetryDelay
	}

	if c.ScanTimeout < 0 {
		warnings = append(warnings, "scan_timeout cannot be negative, disabling timeout")
		c.ScanTimeout = 0
	}

	if c.InsecureSkipVerify {
		warnings = append(warnings, "insecure_skip_verify is enabled, appliance TLS certificates are not verified")
	}

	if c.PersistDashboards && c.DashboardDir == "" {
		c.DashboardDir = strings.TrimRight(c.StateDir, "/") + "/dashboards"
	}

	c.validateHTTPClientSettings()

	seen := make(map[string]bool, len(c.VRMs))
	for i := range c.VRMs {
		vrmWarnings, err := c.VRMs[i].Validate()
		if err != nil {
			return warnings, fmt.Errorf("vrms[%d]: %w", i, err)
		}
		warnings = append(warnings, vrmWarnings...)
		host := strings.ToLower(c.VRMs[i].Host)
		if seen[host] {
			warnings = append(warnings, fmt.Sprintf("vrms[%d]: host %s is listed more than once", i, c.VRMs[i].Host))
		}
		seen[host] = true
	}

	return warnings, nil
}

// validateHTTPClientSettings applies defaults to HTTP client settings.
func (c *AppConfig) validateHTTPClientSettings() {
	h := &c.HTTPClientSettings
	if h.Timeout <= 0 {
		h.Timeout = 15 * time.Second
	}
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 100
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = 2
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.ExpectContinueTimeout <= 0 {
		h.ExpectContinueTimeout = 1 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 5 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
}

// Validate checks VRMConfig fields and applies defaults.
// Host is required; site and name fall back to the host so the vrmId stays readable.
func (v *VRMConfig) Validate() (warnings []string, err error) {
	v.Host = strings.TrimSpace(v.Host)
	if v.Host == "" {
		return nil, fmt.Errorf("%w: vrm has no host", utils.ErrConfigValidation)
	}
	if strings.Contains(v.Host, "://") || strings.ContainsAny(v.Host, "/ ") {
		return nil, fmt.Errorf("%w: vrm host %q must be a bare host[:port]", utils.ErrConfigValidation, v.Host)
	}
	if v.Site == "" {
		warnings = append(warnings, fmt.Sprintf("vrm %s has no site", v.Host))
	}
	if v.Name == "" {
		v.Name = v.Host
	}
	return warnings, nil
}
