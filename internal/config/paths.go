package config

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultBaseDir = ".llmbridge"

// Paths holds resolved filesystem paths for llmbridge data.
type Paths struct {
	Base   string // ~/.llmbridge
	Config string // ~/.llmbridge/config.yaml
	Data   string // ~/.llmbridge/data
	DB     string // ~/.llmbridge/data/llmbridge.db
}

// ResolvePaths computes the standard paths. LLMBRIDGE_HOME overrides the
// base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("LLMBRIDGE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	data := filepath.Join(base, "data")
	return Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
		Data:   data,
		DB:     filepath.Join(data, "llmbridge.db"),
	}, nil
}

// EnsureDirs creates the standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Data} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// Lookup traverses a nested map along a dot-separated path such as
// "providers.mistral.baseUrl".
func Lookup(root map[string]any, dotted string) (any, bool) {
	if dotted == "" {
		return nil, false
	}
	current := any(root)
	for _, key := range strings.Split(dotted, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
