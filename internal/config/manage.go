package config

import (
	"fmt"
	"sort"
	"strconv"
)

// KV is one effective config entry for display.
type KV struct {
	Key   string
	Value string
}

// ValidKeys returns the settable config keys in sorted order.
func ValidKeys() []string {
	keys := make([]string, 0, len(keySpecs))
	for k := range keySpecs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ShowAll returns the effective value of every config key in sorted order,
// defaults and overrides applied.
func ShowAll(cfg Config) []KV {
	out := make([]KV, 0, len(keySpecs))
	for _, key := range ValidKeys() {
		spec := keySpecs[key]
		switch spec.kind {
		case kString:
			out = append(out, KV{Key: key, Value: *spec.str(&cfg)})
		case kInt:
			out = append(out, KV{Key: key, Value: strconv.Itoa(*spec.num(&cfg))})
		}
	}
	return out
}

// SetKey persists a config value to the config file.
func SetKey(key, value string) error {
	return setKeyWith(newFileBackend(), key, value)
}

func setKeyWith(b Backend, key, value string) error {
	spec, ok := keySpecs[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid keys: %v)", key, ValidKeys())
	}
	switch spec.kind {
	case kInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s requires an integer value: %w", key, err)
		}
		return b.SetInt(key, n)
	default:
		return b.SetString(key, value)
	}
}
