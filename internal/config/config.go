// Package config provides configuration management for the goals-vision agent.
// Configuration is read from an optional YAML file and environment variables,
// on top of sensible defaults. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultPort     = 8787
	DefaultLogLevel = "info"
	DefaultDataDir  = ".goals-vision"

	// Environment variable names
	EnvConfigFile = "GOALS_CONFIG"
	EnvPort       = "GOALS_PORT"
	EnvLogLevel   = "GOALS_LOG_LEVEL"
	EnvDataDir    = "GOALS_DATA_DIR"
	EnvHeadless   = "GOALS_HEADLESS"

	// Pose pipeline environment variable names
	EnvPosePython   = "GOALS_POSE_PYTHON"
	EnvPoseModule   = "GOALS_POSE_MODULE"
	EnvPoseTimeoutS = "GOALS_POSE_TIMEOUT_S"
	EnvPoseFPS      = "GOALS_POSE_FPS"

	// Comma-separated list of origins allowed to open the live analysis socket
	EnvAllowedOrigins = "GOALS_ALLOWED_ORIGINS"

	// Database filename
	DBFilename = "goals.db"

	// ConfigFilename is looked up in the data directory when GOALS_CONFIG is unset.
	ConfigFilename = "config.yaml"

	// Pipeline defaults
	DefaultPoseModule          = "goals_pose"
	DefaultPoseTimeoutS        = 600 // 10 minutes
	DefaultDoctorTimeoutS      = 30
	DefaultLiveMaxSessionS     = 300
	DefaultLiveMaxFrameBytes   = 64 * 1024
	DefaultShutdownTimeoutS    = 5
	DefaultPlaybackCacheMaxAge = 3600
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	ArtifactsDir() string
	Headless() bool
	PosePython() string
	PoseModule() string
	PoseTimeout() time.Duration
	PoseFPS() float64
	DoctorTimeout() time.Duration
	AllowedOrigins() []string
	LiveMaxSession() time.Duration
	ConfigFile() string
}

// fileConfig is the on-disk YAML layout.
type fileConfig struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	DataDir  string `yaml:"data_dir"`
	Headless *bool  `yaml:"headless"`

	Pose struct {
		Python   string  `yaml:"python"`
		Module   string  `yaml:"module"`
		TimeoutS int     `yaml:"timeout_s"`
		FPS      float64 `yaml:"fps"`
	} `yaml:"pose"`

	Live struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
		MaxSessionS    int      `yaml:"max_session_s"`
	} `yaml:"live"`
}

// EnvConfig holds the resolved configuration.
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string
	headless bool

	posePython   string
	poseModule   string
	poseTimeoutS int
	poseFPS      float64

	allowedOrigins []string
	liveMaxSession int

	configFile string
}

// New creates a new EnvConfig with defaults, the YAML file (if any) and
// environment variable overrides applied in that order.
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:           DefaultPort,
		logLevel:       DefaultLogLevel,
		dataDir:        defaultDataDir(),
		poseModule:     DefaultPoseModule,
		poseTimeoutS:   DefaultPoseTimeoutS,
		liveMaxSession: DefaultLiveMaxSessionS,
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	path, explicit := os.Getenv(EnvConfigFile), true
	if path == "" {
		path, explicit = filepath.Join(cfg.dataDir, ConfigFilename), false
	}
	if err := cfg.loadFile(path, explicit); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays a YAML file. A missing file is only an error when it was
// named explicitly.
func (c *EnvConfig) loadFile(path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.configFile = path

	if fc.Port != 0 {
		c.port = fc.Port
	}
	if fc.LogLevel != "" {
		c.logLevel = fc.LogLevel
	}
	if fc.DataDir != "" && os.Getenv(EnvDataDir) == "" {
		c.dataDir = fc.DataDir
	}
	if fc.Headless != nil {
		c.headless = *fc.Headless
	}
	if fc.Pose.Python != "" {
		c.posePython = fc.Pose.Python
	}
	if fc.Pose.Module != "" {
		c.poseModule = fc.Pose.Module
	}
	if fc.Pose.TimeoutS != 0 {
		c.poseTimeoutS = fc.Pose.TimeoutS
	}
	if fc.Pose.FPS != 0 {
		c.poseFPS = fc.Pose.FPS
	}
	if len(fc.Live.AllowedOrigins) > 0 {
		c.allowedOrigins = fc.Live.AllowedOrigins
	}
	if fc.Live.MaxSessionS != 0 {
		c.liveMaxSession = fc.Live.MaxSessionS
	}
	return nil
}

func (c *EnvConfig) applyEnv() error {
	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		c.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		c.logLevel = ll
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		c.headless = headless
	}

	if pp := os.Getenv(EnvPosePython); pp != "" {
		c.posePython = pp
	}
	if pm := os.Getenv(EnvPoseModule); pm != "" {
		c.poseModule = pm
	}
	if ts := os.Getenv(EnvPoseTimeoutS); ts != "" {
		secs, err := strconv.Atoi(ts)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPoseTimeoutS, err)
		}
		c.poseTimeoutS = secs
	}
	if fps := os.Getenv(EnvPoseFPS); fps != "" {
		v, err := strconv.ParseFloat(fps, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPoseFPS, err)
		}
		c.poseFPS = v
	}

	if ao := os.Getenv(EnvAllowedOrigins); ao != "" {
		var origins []string
		for _, o := range strings.Split(ao, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.allowedOrigins = origins
	}
	return nil
}

func (c *EnvConfig) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.port)
	}
	if c.poseTimeoutS <= 0 {
		return fmt.Errorf("invalid pose timeout %ds: must be positive", c.poseTimeoutS)
	}
	if c.poseFPS < 0 {
		return fmt.Errorf("invalid pose fps %v: must not be negative", c.poseFPS)
	}
	if c.liveMaxSession <= 0 {
		return fmt.Errorf("invalid live max session %ds: must be positive", c.liveMaxSession)
	}
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// ArtifactsDir returns where pose tracks are written
func (c *EnvConfig) ArtifactsDir() string {
	return filepath.Join(c.dataDir, "artifacts")
}

// Headless reports whether the tray icon is disabled
func (c *EnvConfig) Headless() bool {
	return c.headless
}

func (c *EnvConfig) PosePython() string {
	return c.posePython
}

func (c *EnvConfig) PoseModule() string {
	return c.poseModule
}

func (c *EnvConfig) PoseTimeout() time.Duration {
	return time.Duration(c.poseTimeoutS) * time.Second
}

func (c *EnvConfig) PoseFPS() float64 {
	return c.poseFPS
}

func (c *EnvConfig) DoctorTimeout() time.Duration {
	return time.Duration(DefaultDoctorTimeoutS) * time.Second
}

// AllowedOrigins returns the extra origins allowed on the live socket.
// Same-host origins are always allowed.
func (c *EnvConfig) AllowedOrigins() []string {
	return c.allowedOrigins
}

// LiveMaxSession caps how long a live analysis connection may stay open
func (c *EnvConfig) LiveMaxSession() time.Duration {
	return time.Duration(c.liveMaxSession) * time.Second
}

// ConfigFile returns the YAML file that was loaded, or "" if none
func (c *EnvConfig) ConfigFile() string {
	return c.configFile
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
