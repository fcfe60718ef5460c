package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"vrm-observer/pkg/utils"
)

// Environment variables read after the YAML file; they win over file values
const (
	EnvDebugUser = "DBG_USER"
	EnvDebugPass = "DBG_PASS"
	EnvVRMs      = "VRMS" // JSON array of {site, name, host, user, pass}
	EnvPort      = "PORT"
)

// Load reads a YAML config file, then applies environment overrides (loading envFile first when
// it exists). A missing config file is not an error when the environment provides the VRMs.
func Load(path, envFile string) (*AppConfig, []string, error) {
	var notes []string
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !os.IsNotExist(err) {
				return nil, nil, fmt.Errorf("%w: loading %s: %v", utils.ErrConfigValidation, envFile, err)
			}
		} else {
			notes = append(notes, fmt.Sprintf("environment loaded from %s", envFile))
		}
	}

	cfg := &AppConfig{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, nil, fmt.Errorf("%w: parsing config YAML: %v", utils.ErrParsing, err)
		}
	case os.IsNotExist(err):
		notes = append(notes, fmt.Sprintf("config file %s not found, using defaults and environment", path))
	default:
		return nil, nil, fmt.Errorf("%w: reading config file: %v", utils.ErrFilesystem, err)
	}

	envNotes, err := cfg.ApplyEnv(os.Getenv)
	if err != nil {
		return nil, nil, err
	}
	return cfg, append(notes, envNotes...), nil
}

// ApplyEnv overrides credentials, VRMs and the listen port from environment lookups
func (c *AppConfig) ApplyEnv(getenv func(string) string) (notes []string, err error) {
	if v := getenv(EnvDebugUser); v != "" {
		c.DebugUser = v
		notes = append(notes, EnvDebugUser+" overrides debug_user")
	}
	if v := getenv(EnvDebugPass); v != "" {
		c.DebugPass = v
		notes = append(notes, EnvDebugPass+" overrides debug_pass")
	}
	if v := strings.TrimSpace(getenv(EnvVRMs)); v != "" {
		var vrms []VRMConfig
		if err := json.Unmarshal([]byte(v), &vrms); err != nil {
			return notes, fmt.Errorf("%w: %s is not a JSON array of VRMs: %v", utils.ErrParsing, EnvVRMs, err)
		}
		c.VRMs = vrms
		notes = append(notes, fmt.Sprintf("%s overrides vrms (%d entries)", EnvVRMs, len(vrms)))
	}
	if v := getenv(EnvPort); v != "" {
		c.ListenAddr = ":" + strings.TrimPrefix(v, ":")
		notes = append(notes, EnvPort+" overrides listen_addr")
	}
	return notes, nil
}
