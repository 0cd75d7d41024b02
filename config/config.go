package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 进程配置：默认值 <- .env <- 环境变量
type Config struct {
	Addr        string
	LogFile     string
	LogLevel    string
	DefaultRoom string

	TickRate  int     // 每秒 Tick 数（服务端与机器人共用）
	MoveSpeed float64 // 插值速度（格/秒）
	MapPath   string  // 为空时使用内置地图

	Codec      string // json / msgpack
	TrimPolicy string // count / sequence

	DamageInterval time.Duration
	DamageAmount   int
	MaxHealth      int

	OverrideRate  float64 // 每个来源每秒允许的手动覆盖次数
	OverrideBurst int

	CORSOrigins []string
}

// Default 默认配置
func Default() Config {
	return Config{
		Addr:           ":8080",
		LogFile:        "app.log",
		LogLevel:       "info",
		DefaultRoom:    "room-1",
		TickRate:       20,
		MoveSpeed:      6,
		Codec:          "json",
		TrimPolicy:     "count",
		DamageInterval: time.Second,
		DamageAmount:   5,
		MaxHealth:      100,
		OverrideRate:   2,
		OverrideBurst:  4,
		CORSOrigins:    []string{"*"},
	}
}

// TickInterval 由 TickRate 推出的 Tick 间隔
func (c Config) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return 50 * time.Millisecond
	}
	return time.Second / time.Duration(c.TickRate)
}

// Load 读取 .env（文件不存在不算错误，已有环境变量优先），再解析环境变量
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv 只读环境变量
func FromEnv() (Config, error) {
	c := Default()
	var err error

	str(&c.Addr, "ADDR")
	str(&c.LogFile, "LOG_FILE")
	str(&c.LogLevel, "LOG_LEVEL")
	str(&c.DefaultRoom, "DEFAULT_ROOM")
	str(&c.MapPath, "MAP_PATH")
	str(&c.Codec, "WIRE_CODEC")
	str(&c.TrimPolicy, "TRIM_POLICY")

	if err = integer(&c.TickRate, "TICK_RATE"); err != nil {
		return Config{}, err
	}
	if err = float(&c.MoveSpeed, "MOVE_SPEED"); err != nil {
		return Config{}, err
	}
	if err = duration(&c.DamageInterval, "DAMAGE_INTERVAL"); err != nil {
		return Config{}, err
	}
	if err = integer(&c.DamageAmount, "DAMAGE_AMOUNT"); err != nil {
		return Config{}, err
	}
	if err = integer(&c.MaxHealth, "MAX_HEALTH"); err != nil {
		return Config{}, err
	}
	if err = float(&c.OverrideRate, "OVERRIDE_RATE"); err != nil {
		return Config{}, err
	}
	if err = integer(&c.OverrideBurst, "OVERRIDE_BURST"); err != nil {
		return Config{}, err
	}
	if v, ok := lookup("CORS_ORIGINS"); ok {
		c.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
	}

	if c.TickRate <= 0 {
		return Config{}, fmt.Errorf("config: TICK_RATE must be positive, got %d", c.TickRate)
	}
	return c, nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func str(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func integer(dst *int, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}

func float(dst *float64, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = f
	return nil
}

func duration(dst *time.Duration, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = d
	return nil
}
