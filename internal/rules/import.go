package rules

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/alperenugurlu/mirror-history/internal/database/repository"
)

type ruleFile struct {
	Rule []ruleEntry `toml:"rule"`
}

type ruleEntry struct {
	Type    string         `toml:"type"`
	Enabled *bool          `toml:"enabled"`
	Payload map[string]any `toml:"payload"`
}

var validTypes = map[string]bool{
	TypeIgnoreMerchant:        true,
	TypeIgnoreCategory:        true,
	TypeThreshold:             true,
	TypeWhitelistSubscription: true,
}

// ImportFile parses a TOML rule bundle into store rules. IDs are left empty
// for the caller to mint. Rules default to enabled.
func ImportFile(path string) ([]repository.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f ruleFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make([]repository.Rule, 0, len(f.Rule))
	for i, e := range f.Rule {
		if !validTypes[e.Type] {
			return nil, fmt.Errorf("rule %d: unknown type %q", i+1, e.Type)
		}
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, fmt.Errorf("rule %d payload: %w", i+1, err)
		}
		enabled := true
		if e.Enabled != nil {
			enabled = *e.Enabled
		}
		out = append(out, repository.Rule{
			Type:    e.Type,
			Payload: payload,
			Enabled: enabled,
		})
	}
	return out, nil
}
