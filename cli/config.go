package main

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/zed-0xff/wxkey"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Process string        `yaml:"process"`
	Output  string        `yaml:"output"`
	Timeout time.Duration `yaml:"timeout"`
	LLDB    string        `yaml:"lldb"`
	Python  string        `yaml:"python"`

	Validator ValidatorConfig `yaml:"validator"`
}

type ValidatorConfig struct {
	Method  string        `yaml:"method"`
	Tool    string        `yaml:"tool"`
	Timeout time.Duration `yaml:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		Process: wxkey.DefaultProcessName(),
		Timeout: wxkey.DefaultScanTimeout,
		Validator: ValidatorConfig{
			Method:  "cli",
			Tool:    wxkey.DefaultValidatorTool,
			Timeout: wxkey.DefaultValidatorTimeout,
		},
	}
}

// LoadConfig reads path over the defaults. An empty path or a missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return cfg, nil
}

func (c *Config) AttachOptions() wxkey.AttachOptions {
	return wxkey.AttachOptions{LLDB: c.LLDB, Python: c.Python}
}

func (c *Config) NewValidator() (wxkey.Validator, error) {
	switch c.Validator.Method {
	case "", "cli":
		return wxkey.CLIValidator{Tool: c.Validator.Tool, Timeout: c.Validator.Timeout}, nil
	case "header":
		return wxkey.HeaderValidator{}, nil
	}
	return nil, errors.Errorf("unknown validation method %q", c.Validator.Method)
}
