package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"
)

// Config pingcraft configuration.
type Config struct {
	Device  string `yaml:"device"`
	SrcMAC  string `yaml:"src_mac"` // empty: use the device's own address
	DstMAC  string `yaml:"dst_mac"`
	SrcIP   string `yaml:"src_ip"`
	DstIP   string `yaml:"dst_ip"`
	TTL     uint8  `yaml:"ttl"`
	Ident   uint16 `yaml:"ident"`
	Seq     uint16 `yaml:"seq"`
	Payload string `yaml:"payload"`

	Log struct {
		File  string `yaml:"file"` // empty: log to stderr
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func loadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := &Config{
		Device:  "eth0",
		TTL:     0x20,
		Ident:   0x1234,
		Seq:     0xABCD,
		Payload: "ABCD",
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

func setupLogger(cfg *Config) error {
	log.SetFormatter(
		&log.TextFormatter{
			FullTimestamp:  true,
			DisableColors:  true,
			DisableSorting: true})

	level := log.InfoLevel
	if cfg.Log.Level != "" {
		var err error
		level, err = log.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
	}
	log.SetLevel(level)

	if cfg.Log.File != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    10,
			MaxBackups: 3,
		})
	}

	return nil
}
