package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	appName = "platewatch"

	configPathEnv = "PLATEWATCH_CONFIG"
	platesFileEnv = "PLATEWATCH_PLATES_FILE"
	seenFileEnv   = "PLATEWATCH_SEEN_FILE"
	strategyEnv   = "PLATEWATCH_STRATEGY"
	deployDirEnv  = "PLATEWATCH_DEPLOY_DIR"
)

// Strategy names accepted by the scan registry.
const (
	StrategyRange  = "range"
	StrategySearch = "search"
)

// Config holds the settings required across the application. It is built
// once at startup and passed down; components never read globals.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Scan          ScanConfig         `yaml:"scan"`
	Range         RangeConfig        `yaml:"range"`
	Endpoints     EndpointConfig     `yaml:"endpoints"`
	Storage       StorageConfig      `yaml:"storage"`
	Notifications NotificationConfig `yaml:"notifications"`
	Deploy        DeployConfig       `yaml:"deploy"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ScanConfig tunes the discovery run.
type ScanConfig struct {
	Strategy           string `yaml:"strategy"`
	Concurrency        int    `yaml:"concurrency"`
	PageCap            int    `yaml:"pageCap"`
	HTTPTimeoutSeconds int    `yaml:"httpTimeoutSeconds"`
}

// RangeConfig bounds the dense enumeration strategy.
type RangeConfig struct {
	Prefix string `yaml:"prefix"`
	Start  int    `yaml:"start"`
	End    int    `yaml:"end"`
	Width  int    `yaml:"width"`
}

// EndpointConfig carries the upstream base URLs.
type EndpointConfig struct {
	PlateDetailBase string `yaml:"plateDetailBase"`
	InsuranceBase   string `yaml:"insuranceBase"`
	SearchBase      string `yaml:"searchBase"`
}

// StorageConfig points at the persisted state files. ArchiveFile is
// optional; an empty value disables the run archive.
type StorageConfig struct {
	PlatesFile  string `yaml:"platesFile"`
	SeenFile    string `yaml:"seenFile"`
	ArchiveFile string `yaml:"archiveFile"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Desktop DesktopConfig `yaml:"desktop"`
}

// DesktopConfig wires the local desktop notification.
type DesktopConfig struct {
	Enabled        bool `yaml:"enabled"`
	TimeoutSeconds int  `yaml:"timeoutSeconds"`
}

// DeployConfig describes the optional static-site deploy step.
type DeployConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// LoadFile behaves like Load but reads the named file instead of consulting
// the environment for a path.
func LoadFile(path string) (Config, error) {
	cfg := defaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return cfg, err
	}

	cfg = mergeConfig(cfg, fileCfg)
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(platesFileEnv); v != "" {
		c.Storage.PlatesFile = v
	}

	if v := os.Getenv(seenFileEnv); v != "" {
		c.Storage.SeenFile = v
	}

	if v := os.Getenv(strategyEnv); v != "" {
		c.Scan.Strategy = v
	}

	if v := os.Getenv(deployDirEnv); v != "" {
		c.Deploy.Dir = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Scan.Strategy != "" {
		base.Scan.Strategy = override.Scan.Strategy
	}
	if override.Scan.Concurrency > 0 {
		base.Scan.Concurrency = override.Scan.Concurrency
	}
	if override.Scan.PageCap > 0 {
		base.Scan.PageCap = override.Scan.PageCap
	}
	if override.Scan.HTTPTimeoutSeconds > 0 {
		base.Scan.HTTPTimeoutSeconds = override.Scan.HTTPTimeoutSeconds
	}

	if override.Range.Prefix != "" {
		base.Range.Prefix = override.Range.Prefix
	}
	if override.Range.End > 0 {
		base.Range.Start = override.Range.Start
		base.Range.End = override.Range.End
	}
	if override.Range.Width > 0 {
		base.Range.Width = override.Range.Width
	}

	if override.Endpoints.PlateDetailBase != "" {
		base.Endpoints.PlateDetailBase = override.Endpoints.PlateDetailBase
	}
	if override.Endpoints.InsuranceBase != "" {
		base.Endpoints.InsuranceBase = override.Endpoints.InsuranceBase
	}
	if override.Endpoints.SearchBase != "" {
		base.Endpoints.SearchBase = override.Endpoints.SearchBase
	}

	if override.Storage.PlatesFile != "" {
		base.Storage.PlatesFile = override.Storage.PlatesFile
	}
	if override.Storage.SeenFile != "" {
		base.Storage.SeenFile = override.Storage.SeenFile
	}
	if override.Storage.ArchiveFile != "" {
		base.Storage.ArchiveFile = override.Storage.ArchiveFile
	}

	if override.Notifications.Desktop.Enabled || override.Notifications.Desktop.TimeoutSeconds > 0 {
		base.Notifications = override.Notifications
	}

	if override.Deploy.Dir != "" {
		base.Deploy = override.Deploy
	}

	return base
}

func defaultConfig() Config {
	dataDir := filepath.Join(xdg.DataHome, appName)

	return Config{
		Logging: LoggingConfig{Level: "info"},
		Scan: ScanConfig{
			Strategy:           StrategySearch,
			Concurrency:        20,
			PageCap:            7,
			HTTPTimeoutSeconds: 10,
		},
		Range: RangeConfig{
			Prefix: "EN",
			Start:  0,
			End:    99999,
			Width:  5,
		},
		Endpoints: EndpointConfig{
			PlateDetailBase: "https://www.nummerplade.net/nummerplade/",
			InsuranceBase:   "https://data1.nummerplade.net/dmr_forsikring.php",
			SearchBase:      "https://bilopslag.nu/api/advanced_search",
		},
		Storage: StorageConfig{
			PlatesFile: filepath.Join(dataDir, "plates.json"),
			SeenFile:   filepath.Join(dataDir, "found_plates.txt"),
		},
		Notifications: NotificationConfig{
			Desktop: DesktopConfig{Enabled: false, TimeoutSeconds: 10},
		},
		Deploy: DeployConfig{Enabled: false},
	}
}
