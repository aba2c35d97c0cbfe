// internal/domain/tier/catalog.go
package tier

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultCatalog は INCINERATOR プロトコルの 10 tier です。
// URI は未設定（空文字）のまま on-chain に書き込まれます。
func DefaultCatalog() Catalog {
	return Catalog{
		{Name: "INCINERATOR", Symbol: "INCNR", Supply: 33},
		{Name: "APOCALYPSE", Symbol: "APCLP", Supply: 55},
		{Name: "GODSLAYER", Symbol: "GODSLY", Supply: 88},
		{Name: "DISINTEGRATE", Symbol: "DSNTG", Supply: 111},
		{Name: "TERMINATE", Symbol: "TRMNT", Supply: 222},
		{Name: "ANNIHILATE", Symbol: "ANHLT", Supply: 333},
		{Name: "OVERWRITE", Symbol: "OVRWT", Supply: 444},
		{Name: "INFERNO", Symbol: "INFRN", Supply: 555},
		{Name: "FLAME", Symbol: "FLAME", Supply: 888},
		{Name: "SPARK", Symbol: "SPARK", Supply: 4444},
	}
}

type catalogFile struct {
	Tiers Catalog `yaml:"tiers"`
}

// ParseCatalog decodes a YAML document of the form
//
//	tiers:
//	  - name: INCINERATOR
//	    symbol: INCNR
//	    supply: 33
//	    uri: ""
//
// Unknown keys are rejected so a typo does not silently drop a field.
func ParseCatalog(data []byte) (Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f catalogFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := f.Tiers.Validate(); err != nil {
		return nil, err
	}
	return f.Tiers, nil
}

// LoadCatalog reads the catalog from path, or returns DefaultCatalog when path is empty.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tier catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}
