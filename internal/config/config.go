package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"templatecheck/internal/classifier"
	"templatecheck/internal/logging"
)

// FileName 默认配置文件名
const FileName = "config.toml"

// EnvPrefix 环境变量前缀
const EnvPrefix = "TEMPLATECHECK_"

// AppConfig 应用配置
type AppConfig struct {
	Server     ServerConfig     `toml:"server"`
	Data       DataConfig       `toml:"data"`
	Templates  TemplatesConfig  `toml:"templates"`
	Classifier ClassifierConfig `toml:"classifier"`
	Log        logging.Config   `toml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int   `toml:"port"`
	DevMode     bool  `toml:"dev_mode"`
	MaxUploadMB int64 `toml:"max_upload_mb"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir       string `toml:"data_dir"`
	RecordUploads bool   `toml:"record_uploads"`
}

// TemplatesConfig 参考模板来源; dir wins over base_url, neither means embedded.
type TemplatesConfig struct {
	Dir                 string `toml:"dir"`
	BaseURL             string `toml:"base_url"`
	FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds"`
	Cache               bool   `toml:"cache"`
}

// ClassifierConfig 分类器配置
type ClassifierConfig struct {
	Ranking string `toml:"ranking"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:        20262,
			DevMode:     false,
			MaxUploadMB: 20,
		},
		Data: DataConfig{
			DataDir:       "data",
			RecordUploads: true,
		},
		Templates: TemplatesConfig{
			FetchTimeoutSeconds: 10,
			Cache:               true,
		},
		Classifier: ClassifierConfig{
			Ranking: string(classifier.RankFirstMatch),
		},
		Log: logging.DefaultConfig(),
	}
}

// FetchTimeout HTTP 模板源超时
func (c TemplatesConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// Validate 校验配置
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive")
	}
	if _, err := classifier.ParseRanking(c.Classifier.Ranking); err != nil {
		return err
	}
	return nil
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultPath config.toml beside the executable
func DefaultPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, FileName)
}

// LoadConfigWithInfo 加载配置并返回元信息; an empty path means DefaultPath.
// A missing file yields the defaults. Environment overrides apply either way.
func LoadConfigWithInfo(path string) (*AppConfig, LoadConfigInfo, error) {
	if path == "" {
		path = DefaultPath()
	}
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	if err := applyEnv(config, &info); err != nil {
		return nil, info, err
	}
	if err := config.Validate(); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// LoadConfig 加载配置
func LoadConfig(path string) (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo(path)
	return config, err
}

// applyEnv 环境变量覆盖（用于容器 / 本地运行）
func applyEnv(c *AppConfig, info *LoadConfigInfo) error {
	if v := env("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPORT: %w", EnvPrefix, err)
		}
		c.Server.Port = port
		info.PortSpecified = true
	}
	if v := env("DATA_DIR"); v != "" {
		c.Data.DataDir = v
	}
	if v := env("TEMPLATES_DIR"); v != "" {
		c.Templates.Dir = v
	}
	if v := env("TEMPLATES_BASE_URL"); v != "" {
		c.Templates.BaseURL = v
	}
	if v := env("CLASSIFIER_RANKING"); v != "" {
		c.Classifier.Ranking = v
	}
	if v := env("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + key))
}

// SaveConfig 保存配置到 path
func SaveConfig(config *AppConfig, path string) error {
	if path == "" {
		path = DefaultPath()
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EnsureDataDir 确保数据目录存在; relative dirs resolve against the executable.
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// DatabasePath 上传记录数据库路径
func DatabasePath(dataDir string) string {
	return filepath.Join(dataDir, "templatecheck.db")
}
