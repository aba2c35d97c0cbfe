// internal/domain/tier/entity.go
package tier

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors
var (
	ErrEmptyCatalog   = errors.New("tier: catalog is empty")
	ErrInvalidName    = errors.New("tier: invalid name")
	ErrInvalidSymbol  = errors.New("tier: invalid symbol")
	ErrDuplicateName  = errors.New("tier: duplicate name")
	ErrInvalidCatalog = errors.New("tier: invalid catalog file")
)

// Definition は 1 つの tier（ミントを 1 つ作る単位）の静的な定義です。
// Supply は表示用の最大供給量で、このワークフローでは強制しません。
type Definition struct {
	Name   string `yaml:"name"`
	Symbol string `yaml:"symbol"`
	Supply uint64 `yaml:"supply"`
	URI    string `yaml:"uri"`
}

// Validate checks a single definition.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrInvalidName
	}
	if strings.ContainsAny(d.Name, `/\`) {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, d.Name)
	}
	if strings.TrimSpace(d.Symbol) == "" {
		return fmt.Errorf("%w: tier %s", ErrInvalidSymbol, d.Name)
	}
	return nil
}

// KeyFileName is the per-tier secret key file name: tier_<index>_<lower(name)>.json
func (d Definition) KeyFileName(index int) string {
	return fmt.Sprintf("tier_%d_%s.json", index, strings.ToLower(strings.TrimSpace(d.Name)))
}

// Catalog は入力順を保持した tier の一覧です。順序が tier_index になります。
type Catalog []Definition

// Validate checks every entry and rejects names that collide once lower-cased,
// since two such tiers would share a key file name.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return ErrEmptyCatalog
	}
	seen := make(map[string]int, len(c))
	for i, d := range c {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("tier[%d]: %w", i, err)
		}
		key := strings.ToLower(strings.TrimSpace(d.Name))
		if j, ok := seen[key]; ok {
			return fmt.Errorf("%w: %q at %d and %d", ErrDuplicateName, d.Name, j, i)
		}
		seen[key] = i
	}
	return nil
}

// Names returns tier names in catalog order.
func (c Catalog) Names() []string {
	out := make([]string, 0, len(c))
	for _, d := range c {
		out = append(out, d.Name)
	}
	return out
}
