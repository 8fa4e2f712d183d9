package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds engine configuration.
type Config struct {
	Database  DatabaseConfig
	Log       LogConfig
	Detectors DetectorConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// LogConfig holds process-log settings.
type LogConfig struct {
	Level string
	JSON  bool
}

// DetectorConfig holds the user-tunable detection thresholds.
type DetectorConfig struct {
	RefundThresholdDays     int
	RefundMinAmount         float64
	SubscriptionMinConf     float64
	TimeGapMinHours         float64
	ScheduleOverlapMinutes  int
	EmotionalSpendMinAmount float64
	Timezone                string
}

// Load reads configuration from file and env. Env var overrides use prefix MIRROR_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "mirror", "mirror.db"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("detectors.refund_threshold_days", 30)
	v.SetDefault("detectors.refund_min_amount", 50.0)
	v.SetDefault("detectors.subscription_min_conf", 0.40)
	v.SetDefault("detectors.time_gap_min_hours", 2.0)
	v.SetDefault("detectors.schedule_overlap_minutes", 5)
	v.SetDefault("detectors.emotional_spend_min_amount", 20.0)
	v.SetDefault("detectors.timezone", "UTC")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("MIRROR_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "mirror"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("MIRROR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	c := Config{
		Database: DatabaseConfig{
			Path: v.GetString("database.path"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
			JSON:  v.GetBool("log.json"),
		},
		Detectors: DetectorConfig{
			RefundThresholdDays:     v.GetInt("detectors.refund_threshold_days"),
			RefundMinAmount:         v.GetFloat64("detectors.refund_min_amount"),
			SubscriptionMinConf:     v.GetFloat64("detectors.subscription_min_conf"),
			TimeGapMinHours:         v.GetFloat64("detectors.time_gap_min_hours"),
			ScheduleOverlapMinutes:  v.GetInt("detectors.schedule_overlap_minutes"),
			EmotionalSpendMinAmount: v.GetFloat64("detectors.emotional_spend_min_amount"),
			Timezone:                v.GetString("detectors.timezone"),
		},
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("config: database.path must not be empty")
	}
	if c.Detectors.RefundThresholdDays < 0 {
		return fmt.Errorf("config: detectors.refund_threshold_days must be >= 0")
	}
	if c.Detectors.SubscriptionMinConf < 0 || c.Detectors.SubscriptionMinConf > 1 {
		return fmt.Errorf("config: detectors.subscription_min_conf must be within [0,1]")
	}
	return nil
}
