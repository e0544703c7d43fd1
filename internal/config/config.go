package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultSocketPath       = "/tmp/lrc_player.sock"
	DefaultTickInterval     = 50 * time.Millisecond
	DefaultWatchDebounce    = 500 * time.Millisecond
	DefaultFallbackEncoding = "gbk"
	DefaultPlayerSource     = "internal"
	DefaultRedisKeyPrefix   = "lrc-player:"
	DefaultStatusFile       = "/tmp/lyrics"
	DefaultStatusProcess    = "i3blocks"
)

func getDefaultCacheDir() string {
	// 优先使用 XDG_CACHE_HOME 环境变量
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "lrc-player")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "lrc_player_cache"
	}

	return filepath.Join(homeDir, ".cache", "lrc-player")
}

func getDefaultExportDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "exports"
	}
	return filepath.Join(homeDir, "Downloads")
}

// TomlConfig TOML配置文件结构
type TomlConfig struct {
	App struct {
		SocketPath   string `toml:"socket_path"`
		TickInterval string `toml:"tick_interval"`
		CacheDir     string `toml:"cache_dir"`
		HistoryDB    string `toml:"history_db"`
		LogLevel     string `toml:"log_level"`
	} `toml:"app"`

	Library struct {
		Dir              string `toml:"dir"`
		ExportDir        string `toml:"export_dir"`
		FallbackEncoding string `toml:"fallback_encoding"`
		Watch            *bool  `toml:"watch"`
		WatchDebounce    string `toml:"watch_debounce"`
	} `toml:"library"`

	Player struct {
		Source string `toml:"source"`
	} `toml:"player"`

	StatusBar struct {
		Enabled *bool   `toml:"enabled"`
		File    string  `toml:"file"`
		Process *string `toml:"process"`
	} `toml:"statusbar"`

	Redis struct {
		Enabled   bool   `toml:"enabled"`
		Addr      string `toml:"addr"`
		Password  string `toml:"password"`
		DB        int    `toml:"db"`
		KeyPrefix string `toml:"key_prefix"`
		TTL       string `toml:"ttl"`
	} `toml:"redis"`
}

// AppConfig 应用配置
type AppConfig struct {
	SocketPath   string
	TickInterval time.Duration
	CacheDir     string
	HistoryDB    string
	LogLevel     string
}

// LibraryConfig 歌曲目录配置
type LibraryConfig struct {
	Dir              string
	ExportDir        string
	FallbackEncoding string
	Watch            bool
	WatchDebounce    time.Duration
}

// PlayerConfig 播放位置来源
type PlayerConfig struct {
	Source string
}

// StatusBarConfig 状态栏歌词文件配置
type StatusBarConfig struct {
	Enabled bool
	File    string
	Process string
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled   bool
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// Config 主配置结构
type Config struct {
	App     AppConfig
	Library LibraryConfig
	Player    PlayerConfig
	StatusBar StatusBarConfig
	Redis     RedisConfig
}

// getConfigPath 获取配置文件路径
func getConfigPath() string {
	if path := os.Getenv("LRC_PLAYER_CONFIG"); path != "" {
		return path
	}

	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "lrc-player", "config.toml")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Printf("WARN: Cannot get user home directory: %v", err)
		return "config.toml"
	}

	return filepath.Join(homeDir, ".config", "lrc-player", "config.toml")
}

// loadTomlConfig 加载TOML配置文件
func loadTomlConfig(configPath string) (*TomlConfig, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Printf("INFO: Config file not found at %s, using defaults", configPath)
		return &TomlConfig{}, nil
	}

	var config TomlConfig
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, err
	}

	log.Printf("INFO: Loaded config from %s", configPath)
	return &config, nil
}

// Load 读取 .env、配置文件和环境变量
func Load() *Config {
	// .env 是可选的
	_ = godotenv.Load()
	return LoadFrom(getConfigPath())
}

// LoadFrom 从指定路径加载配置，环境变量优先
func LoadFrom(configPath string) *Config {
	tomlConfig, err := loadTomlConfig(configPath)
	if err != nil {
		log.Printf("ERROR: Failed to load config file: %v", err)
		log.Printf("INFO: Using default configuration")
		tomlConfig = &TomlConfig{}
	}

	cacheDir := getDefaultCacheDir()
	config := &Config{
		App: AppConfig{
			SocketPath:   DefaultSocketPath,
			TickInterval: DefaultTickInterval,
			CacheDir:     cacheDir,
			LogLevel:     "info",
		},
		Library: LibraryConfig{
			Dir:              ".",
			ExportDir:        getDefaultExportDir(),
			FallbackEncoding: DefaultFallbackEncoding,
			Watch:            true,
			WatchDebounce:    DefaultWatchDebounce,
		},
		Player: PlayerConfig{
			Source: DefaultPlayerSource,
		},
		StatusBar: StatusBarConfig{
			File:    DefaultStatusFile,
			Process: DefaultStatusProcess,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: DefaultRedisKeyPrefix,
		},
	}

	// App
	if tomlConfig.App.SocketPath != "" {
		config.App.SocketPath = tomlConfig.App.SocketPath
	}
	config.App.TickInterval = parseDurationOrDefault("tick_interval", tomlConfig.App.TickInterval, config.App.TickInterval)
	if tomlConfig.App.CacheDir != "" {
		config.App.CacheDir = tomlConfig.App.CacheDir
	}
	config.App.HistoryDB = filepath.Join(config.App.CacheDir, "history.db")
	if tomlConfig.App.HistoryDB != "" {
		config.App.HistoryDB = tomlConfig.App.HistoryDB
	}
	if tomlConfig.App.LogLevel != "" {
		config.App.LogLevel = strings.ToLower(tomlConfig.App.LogLevel)
	}

	// Library
	if tomlConfig.Library.Dir != "" {
		config.Library.Dir = tomlConfig.Library.Dir
	}
	if tomlConfig.Library.ExportDir != "" {
		config.Library.ExportDir = tomlConfig.Library.ExportDir
	}
	if tomlConfig.Library.FallbackEncoding != "" {
		config.Library.FallbackEncoding = tomlConfig.Library.FallbackEncoding
	}
	if tomlConfig.Library.Watch != nil {
		config.Library.Watch = *tomlConfig.Library.Watch
	}
	config.Library.WatchDebounce = parseDurationOrDefault("watch_debounce", tomlConfig.Library.WatchDebounce, config.Library.WatchDebounce)

	// Player
	if tomlConfig.Player.Source != "" {
		config.Player.Source = tomlConfig.Player.Source
	}

	// StatusBar
	if tomlConfig.StatusBar.Enabled != nil {
		config.StatusBar.Enabled = *tomlConfig.StatusBar.Enabled
	}
	if tomlConfig.StatusBar.File != "" {
		config.StatusBar.File = tomlConfig.StatusBar.File
	}
	if tomlConfig.StatusBar.Process != nil {
		config.StatusBar.Process = *tomlConfig.StatusBar.Process
	}

	// Redis
	config.Redis.Enabled = tomlConfig.Redis.Enabled
	if tomlConfig.Redis.Addr != "" {
		config.Redis.Addr = tomlConfig.Redis.Addr
	}
	if tomlConfig.Redis.Password != "" {
		config.Redis.Password = tomlConfig.Redis.Password
	}
	if tomlConfig.Redis.DB != 0 {
		config.Redis.DB = tomlConfig.Redis.DB
	}
	if tomlConfig.Redis.KeyPrefix != "" {
		config.Redis.KeyPrefix = tomlConfig.Redis.KeyPrefix
	}
	config.Redis.TTL = parseDurationOrDefault("ttl", tomlConfig.Redis.TTL, 0)

	// 环境变量覆盖
	if dir := os.Getenv("LRC_PLAYER_LIBRARY_DIR"); dir != "" {
		config.Library.Dir = dir
	}
	if dir := os.Getenv("LRC_PLAYER_EXPORT_DIR"); dir != "" {
		config.Library.ExportDir = dir
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.Redis.Addr = addr
		config.Redis.Enabled = true
	}

	return config
}

func parseDurationOrDefault(key, s string, defaultValue time.Duration) time.Duration {
	if s == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		log.Printf("WARN: Invalid %s format '%s', using default %v", key, s, defaultValue)
		return defaultValue
	}
	return d
}
