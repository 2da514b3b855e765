// Package config 负责读取配置：默认值 < 配置文件 < .env / 环境变量 < 命令行参数。
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 配置项名称
const (
	KeyRefresh         = "refresh"
	KeyWindow          = "window"
	KeyHistoryCapacity = "history_capacity"
	KeyPruneEvery      = "prune_every"
	KeyBPFObject       = "bpf_object"
	KeyListen          = "listen"
	KeyPlain           = "plain"
	KeyDemo            = "demo"
	KeyLogFile         = "log_file"
	KeyLogLevel        = "log_level"
)

// Config 是程序运行所需的全部配置
type Config struct {
	Refresh         time.Duration
	Window          time.Duration
	HistoryCapacity int
	PruneEvery      int
	BPFObject       string
	Listen          string
	Plain           bool
	Demo            bool
	LogFile         string
	LogLevel        string
}

// SetDefaults 设置默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyRefresh, 200*time.Millisecond)
	v.SetDefault(KeyWindow, 5*time.Second)
	v.SetDefault(KeyHistoryCapacity, 255)
	v.SetDefault(KeyPruneEvery, 10)
	v.SetDefault(KeyBPFObject, "bpf/netmon.bpf.o")
	v.SetDefault(KeyListen, "")
	v.SetDefault(KeyPlain, false)
	v.SetDefault(KeyDemo, false)
	v.SetDefault(KeyLogFile, filepath.Join(os.TempDir(), "netmon.log"))
	v.SetDefault(KeyLogLevel, "info")
}

// ReadIn 查找并读取配置文件
// cfgFile 为空时依次查找 ~/.config/netmon/config.yaml 和 ~/.netmon.yaml
// 当前目录下有 .env 时先加载到环境变量
func ReadIn(v *viper.Viper, cfgFile string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	v.SetEnvPrefix("NETMON")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	v.SetConfigType("yaml")
	for _, candidate := range []string{
		filepath.Join(home, ".config", "netmon", "config.yaml"),
		filepath.Join(home, ".netmon.yaml"),
	} {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		v.SetConfigFile(candidate)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", candidate, err)
		}
		return nil
	}
	return nil
}

// ResolveObject 定位 eBPF 目标文件
// 相对路径先按当前目录找，找不到再按可执行文件所在目录找；都没有时原样返回，由加载时报错
func ResolveObject(path string) string {
	exe, err := os.Executable()
	if err != nil {
		return path
	}
	return resolveObject(path, filepath.Dir(exe))
}

func resolveObject(path, exeDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	candidate := filepath.Join(exeDir, path)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return path
}

// Load 从 viper 取出配置并校验
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Refresh:         v.GetDuration(KeyRefresh),
		Window:          v.GetDuration(KeyWindow),
		HistoryCapacity: v.GetInt(KeyHistoryCapacity),
		PruneEvery:      v.GetInt(KeyPruneEvery),
		BPFObject:       v.GetString(KeyBPFObject),
		Listen:          v.GetString(KeyListen),
		Plain:           v.GetBool(KeyPlain),
		Demo:            v.GetBool(KeyDemo),
		LogFile:         v.GetString(KeyLogFile),
		LogLevel:        v.GetString(KeyLogLevel),
	}
	return cfg, cfg.Validate()
}

// Validate 检查取值范围
func (c Config) Validate() error {
	var errs []error
	if c.Refresh <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %s", KeyRefresh, c.Refresh))
	}
	if c.Window <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %s", KeyWindow, c.Window))
	}
	// 至少两个样本才能算速率
	if c.HistoryCapacity < 2 {
		errs = append(errs, fmt.Errorf("%s must be at least 2, got %d", KeyHistoryCapacity, c.HistoryCapacity))
	}
	if c.PruneEvery < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", KeyPruneEvery, c.PruneEvery))
	}
	if !c.Demo && c.BPFObject == "" {
		errs = append(errs, fmt.Errorf("%s is required unless %s is set", KeyBPFObject, KeyDemo))
	}
	return errors.Join(errs...)
}
