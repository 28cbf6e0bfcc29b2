package config

import (
	"fmt"
	"strings"
)

type EnvVars struct {
	Port       string `env:"PORT" envDefault:"3001"`
	AppName    string `env:"APP_NAME" envDefault:"Social Login"`
	Env        string `env:"ENV" envDefault:"DEV"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	DataFolder string `env:"DATA_FOLDER" envDefault:"./data"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.Port
	if port == "" {
		port = "3001"
	}
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return e.Env
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

func (e EnvVars) GetDataFolder() string {
	return e.DataFolder
}
