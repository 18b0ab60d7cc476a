package main

import (
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/skyline93/pagemap/internal/cache"
	"github.com/skyline93/pagemap/internal/fs"
	"github.com/skyline93/pagemap/internal/page"
	"github.com/skyline93/pagemap/internal/pagination"
)

// Config is the configuration of pagecache.
type Config struct {
	CacheDir       string        `mapstructure:"cache_dir"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Format         FormatConfig  `mapstructure:"format"`
}

// FormatConfig are the format parameters books are laid out with.
type FormatConfig struct {
	DeviceID    uint32 `mapstructure:"device_id"`
	Orientation string `mapstructure:"orientation"`
	ShowTitle   bool   `mapstructure:"show_title"`
	ShowImages  bool   `mapstructure:"show_images"`
	FontSize    uint16 `mapstructure:"font_size"`
	CustomFonts bool   `mapstructure:"custom_fonts"`
	FontFamily  string `mapstructure:"font_family"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	dir, err := cache.DefaultDir()
	if err != nil {
		log.WithError(err).Debug("no default cache directory")
	}

	return Config{
		CacheDir:       dir,
		RequestTimeout: pagination.DefaultRequestTimeout,
		Format: FormatConfig{
			Orientation: page.Portrait.String(),
			ShowTitle:   true,
			FontSize:    12,
			FontFamily:  "serif",
		},
	}
}

// Params converts the format configuration.
func (f FormatConfig) Params() (page.Params, error) {
	o, err := page.ParseOrientation(f.Orientation)
	if err != nil {
		return page.Params{}, err
	}
	if f.FontSize == 0 {
		return page.Params{}, errors.New("font size must be positive")
	}

	return page.Params{
		DeviceID:    f.DeviceID,
		Orientation: o,
		ShowTitle:   f.ShowTitle,
		ShowImages:  f.ShowImages,
		FontSize:    f.FontSize,
		CustomFonts: f.CustomFonts,
		FontFamily:  f.FontFamily,
	}, nil
}

// configManager loads the configuration and reloads it when the config file
// changes.
type configManager struct {
	v *viper.Viper

	mu        sync.RWMutex
	config    Config
	callbacks []func(Config)
}

// newConfigManager reads the configuration. The cache-dir flag of flags, if
// present, overrides the config file.
func newConfigManager(cfgFile string, flags *pflag.FlagSet) (*configManager, error) {
	cm := &configManager{v: viper.New()}

	if err := cm.initViper(cfgFile, flags); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

func (cm *configManager) initViper(cfgFile string, flags *pflag.FlagSet) error {
	v := cm.v
	defaults := DefaultConfig()
	v.SetDefault("cache_dir", defaults.CacheDir)
	v.SetDefault("request_timeout", defaults.RequestTimeout)
	v.SetDefault("format.device_id", defaults.Format.DeviceID)
	v.SetDefault("format.orientation", defaults.Format.Orientation)
	v.SetDefault("format.show_title", defaults.Format.ShowTitle)
	v.SetDefault("format.show_images", defaults.Format.ShowImages)
	v.SetDefault("format.font_size", defaults.Format.FontSize)
	v.SetDefault("format.custom_fonts", defaults.Format.CustomFonts)
	v.SetDefault("format.font_family", defaults.Format.FontFamily)

	// Environment variables with PAGECACHE_ prefix, e.g. PAGECACHE_FORMAT_FONT_SIZE
	v.SetEnvPrefix("PAGECACHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if f := flags.Lookup("cache-dir"); f != nil {
			if err := v.BindPFlag("cache_dir", f); err != nil {
				return errors.Wrap(err, "bind flag")
			}
		}
	}

	if cfgFile != "" {
		// an explicitly given config file must exist
		if _, err := fs.Stat(cfgFile); err != nil {
			return errors.Wrap(err, "config file")
		}
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("pagecache")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.pagecache")
	}

	// the config file is optional
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return errors.Wrap(err, "error reading config file")
		}
	}

	return nil
}

func (cm *configManager) load() (Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal config")
	}
	if cfg.CacheDir == "" {
		return Config{}, errors.New("no cache directory configured")
	}
	if _, err := cfg.Format.Params(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Get returns the current configuration.
func (cm *configManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFile returns the config file in use, or an empty string.
func (cm *configManager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for configuration changes.
func (cm *configManager) OnChange(fn func(Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// Watch reloads the configuration whenever the config file changes. Invalid
// configurations are logged and ignored.
func (cm *configManager) Watch() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			log.WithError(err).WithField("file", e.Name).Warn("ignoring invalid configuration")
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		log.WithField("file", e.Name).Info("configuration changed")
		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}
