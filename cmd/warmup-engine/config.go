package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port         int           `yaml:"port"`
	Area         string        `yaml:"area"`
	MarkerValue  string        `yaml:"marker_value"`
	SecretEnv    string        `yaml:"secret_env"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	MaxRedirects int           `yaml:"max_redirects"`
	// Extensions switches analyzers on or off by name.
	Extensions map[string]bool `yaml:"extensions"`
}

func getConfig(filename string) (Config, error) {
	var config Config
	if filename == "" {
		return config, nil
	}
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = yaml.Unmarshal(configBytes, &config)
	return config, err
}
