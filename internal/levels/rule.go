package levels

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/SmartManoj/ARC-AGI-3-Engine/assets"
	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/game"
)

// RuleFile is the descriptor file name inside a game directory.
const RuleFile = "rules.yaml"

// ParseRule decodes and compiles a YAML rule descriptor.
func ParseRule(data []byte) (*game.ToggleRule, error) {
	var d game.RuleDescriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: yaml unmarshal: %v", game.ErrInvalidRule, err)
	}
	return d.Compile()
}

// DefaultRule compiles the built-in region toggle descriptor.
func DefaultRule() (*game.ToggleRule, error) {
	data, err := assets.DefaultRule()
	if err != nil {
		return nil, err
	}
	return ParseRule(data)
}

// withDefaultRule serves a fallback descriptor to selected games.
type withDefaultRule struct {
	Provider
	rule  *game.ToggleRule
	all   bool
	games map[string]bool
}

// WithDefaultRule wraps p so the listed games that have no descriptor of
// their own use rule. The id "*" selects every game.
func WithDefaultRule(p Provider, rule *game.ToggleRule, gameIDs []string) Provider {
	if rule == nil || len(gameIDs) == 0 {
		return p
	}
	w := &withDefaultRule{Provider: p, rule: rule, games: make(map[string]bool)}
	for _, id := range gameIDs {
		if id == "*" {
			w.all = true
		}
		w.games[id] = true
	}
	return w
}

func (w *withDefaultRule) Rule(ctx context.Context, gameID string) (*game.ToggleRule, bool, error) {
	r, ok, err := w.Provider.Rule(ctx, gameID)
	if err != nil || ok {
		return r, ok, err
	}
	if w.all || w.games[gameID] {
		return w.rule, true, nil
	}
	return nil, false, nil
}
