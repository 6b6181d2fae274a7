package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyKind int

const (
	kString keyKind = iota
	kInt
)

// keySpec maps a dotted config key to its env override and Config field.
type keySpec struct {
	kind keyKind
	env  string
	str  func(c *Config) *string
	num  func(c *Config) *int
}

var keySpecs = map[string]keySpec{
	"server.host": {
		kind: kString,
		env:  "DESKMATE_SERVER_HOST",
		str:  func(c *Config) *string { return &c.Server.Host },
	},
	"server.port": {
		kind: kInt,
		env:  "DESKMATE_SERVER_PORT",
		num:  func(c *Config) *int { return &c.Server.Port },
	},
	"ollama.base_url": {
		kind: kString,
		env:  "DESKMATE_OLLAMA_BASE_URL",
		str:  func(c *Config) *string { return &c.Ollama.BaseURL },
	},
	"ollama.model": {
		kind: kString,
		env:  "DESKMATE_OLLAMA_MODEL",
		str:  func(c *Config) *string { return &c.Ollama.Model },
	},
	"storage.data_dir": {
		kind: kString,
		env:  "DESKMATE_DATA_DIR",
		str:  func(c *Config) *string { return &c.Storage.DataDir },
	},
	"notify.support_address": {
		kind: kString,
		env:  "DESKMATE_SUPPORT_ADDRESS",
		str:  func(c *Config) *string { return &c.Notify.SupportAddress },
	},
	"log.level": {
		kind: kString,
		env:  "DESKMATE_LOG_LEVEL",
		str:  func(c *Config) *string { return &c.Log.Level },
	},
}

func applyBackend(cfg *Config, b Backend) error {
	for key, spec := range keySpecs {
		switch spec.kind {
		case kString:
			val, ok, err := b.GetString(key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", key, err)
			}
			if ok {
				*spec.str(cfg) = val
			}
		case kInt:
			val, ok, err := b.GetInt(key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", key, err)
			}
			if ok {
				*spec.num(cfg) = val
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for key, spec := range keySpecs {
		val, ok := os.LookupEnv(spec.env)
		if !ok || val == "" {
			continue
		}
		switch spec.kind {
		case kString:
			*spec.str(cfg) = val
		case kInt:
			n, err := strconv.Atoi(val)
			if err != nil {
				fmt.Fprintf(os.Stderr, "[WARN] ignoring %s=%q for %s: not an integer\n", spec.env, val, key)
				continue
			}
			*spec.num(cfg) = n
		}
	}
}
