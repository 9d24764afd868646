// Package config loads the TOML configuration file and sets up logging.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/shiena/ansicolor"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const defaultConfigFile = "tilecat.toml"

type Config struct {
	API struct {
		BaseURL        string `mapstructure:"baseUrl" default:"https://gateway.api.globalfishingwatch.org" validate:"required,url"`
		Token          string `mapstructure:"token"`
		Origin         string `mapstructure:"origin" default:"https://globalfishingwatch.org"`
		TimeoutSeconds int    `mapstructure:"timeoutSeconds" default:"30" validate:"gt=0"`
	} `mapstructure:"api"`
	Fetch struct {
		Retries           int `mapstructure:"retries" default:"2" validate:"gte=0"`
		Workers           int `mapstructure:"workers" default:"4" validate:"gt=0"`
		DelayMilliseconds int `mapstructure:"delayMilliseconds" default:"500" validate:"gte=0"`
	} `mapstructure:"fetch"`
	Output struct {
		LogDir   string `mapstructure:"logDir"`
		Terminal bool   `mapstructure:"terminal" default:"true"`
		Level    string `mapstructure:"level" default:"info"`
	} `mapstructure:"output"`
}

// Load reads the config file at path, or tilecat.toml when path is empty.
// A missing default file is not an error, the defaults apply.
func Load(path string) (*Config, error) {
	config := new(Config)
	if err := defaults.Set(config); err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	viper.SetConfigType("toml")
	viper.SetConfigFile(path)
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// InitLog builds a logger writing to the configured log dir and/or the
// terminal, colorized and with millisecond timestamps.
func (c *Config) InitLog() (*logrus.Logger, error) {
	log := logrus.New()
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		ShowFullLevel:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	writers := make([]io.Writer, 0, 2)
	if c.Output.LogDir != "" {
		if err := os.MkdirAll(c.Output.LogDir, os.ModePerm); err != nil {
			return nil, err
		}
		filename := filepath.Join(c.Output.LogDir, time.Now().Format("2006-01-02.log"))
		file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_RDWR, os.ModePerm)
		if err != nil {
			return nil, fmt.Errorf("opening log file %s: %w", filename, err)
		}
		writers = append(writers, file)
	}
	if c.Output.Terminal {
		writers = append(writers, os.Stdout)
	}
	log.SetOutput(ansicolor.NewAnsiColorWriter(io.MultiWriter(writers...)))

	level, err := logrus.ParseLevel(c.Output.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log, nil
}
