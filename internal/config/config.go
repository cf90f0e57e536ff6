package config

import (
	"fmt"
	"os"

	"github.com/go-yaml/yaml"

	"github.com/covault/covault"
)

type Config struct {
	Service Service `yaml:"service"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
	Custody Custody `yaml:"custody"`
}

type Service struct {
	FQDN       string `yaml:"fqdn"`
	PrivateKey string `yaml:"privatekey"`
	Directory  string `yaml:"directory"`

	// ---
	ServiceID string
}

type Server struct {
	ListenAddr    string `yaml:"listenAddr"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Custody struct {
	DefaultMaxMembers int `yaml:"defaultMaxMembers"`
	RetryAttempts     int `yaml:"retryAttempts"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	serviceID, err := covault.PrivKeyToAddr(config.Service.PrivateKey, covault.ServicePrefix)
	if err != nil {
		return Config{}, fmt.Errorf("failed to derive the service id: %w", err)
	}

	config.Service.ServiceID = serviceID

	if config.Server.ListenAddr == "" {
		config.Server.ListenAddr = ":8000"
	}

	return config, nil
}
