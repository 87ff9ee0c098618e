package config

import (
	"time"
)

type AppConfig struct {
	Port           int           `yaml:"port" env:"MEMFS_PORT" env-default:"8080"`
	DefaultTimeout time.Duration `yaml:"default_timeout" env:"MEMFS_TIMEOUT" env-default:"5s"`
}
