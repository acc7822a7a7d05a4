package config

import (
	"fmt"
	"time"

	"github.com/ilyam8/hashstructure"
)

// Update is what config providers emit: a new application config,
// or a nil App when the source disappeared.
type Update struct {
	App    *Config
	Source string
}

type Config struct {
	Listen  string        `yaml:"listen"`
	Timeout TimeoutConfig `yaml:"timeout"`
	LLM     LLMConfig     `yaml:"llm"`
	Policy  PolicyConfig  `yaml:"policy"`
	Tools   ToolsConfig   `yaml:"tools"`
}

type TimeoutConfig struct {
	Command Duration `yaml:"command"`
	Request Duration `yaml:"request"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
}

// PolicyConfig lists command glob patterns. Deny always wins,
// an empty allow list allows everything not denied.
type PolicyConfig struct {
	Allow []string `yaml:"allow"`
	Deny  []string `yaml:"deny"`
}

// ToolsConfig maps tool name to per-tool overrides.
type ToolsConfig map[string]ToolConfig

type ToolConfig struct {
	Prompt string `yaml:"prompt"`
}

func Default() *Config {
	return &Config{
		Listen: ":8081",
		Timeout: TimeoutConfig{
			Command: Duration(time.Second * 60),
			Request: Duration(time.Second * 120),
		},
		Policy: PolicyConfig{
			Deny: []string{
				"rm -rf /*",
				"mkfs*",
				"dd if=*",
				":(){*",
			},
		},
	}
}

// Merge fills unset fields of c from def.
func (c *Config) Merge(def *Config) {
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timeout.Command == 0 {
		c.Timeout.Command = def.Timeout.Command
	}
	if c.Timeout.Request == 0 {
		c.Timeout.Request = def.Timeout.Request
	}
	if len(c.Policy.Deny) == 0 {
		c.Policy.Deny = def.Policy.Deny
	}
}

func (c Config) Hash() uint64 { hash, _ := hashstructure.Hash(c, nil); return hash }

// Duration is a time.Duration that unmarshals from "60s" style strings.
type Duration time.Duration

func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration '%s': %v", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) { return d.String(), nil }
