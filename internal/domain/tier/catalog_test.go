package tier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	require.NoError(t, c.Validate())
	assert.Len(t, c, 10)
	assert.Equal(t, "INCINERATOR", c[0].Name)
	assert.Equal(t, "SPARK", c[9].Name)
	assert.Equal(t, uint64(4444), c[9].Supply)
}

func TestCatalogValidate(t *testing.T) {
	type testcase struct {
		name        string
		input       Catalog
		expectedErr error
	}
	testcases := []testcase{
		{
			name:  "valid",
			input: Catalog{{Name: "SPARK", Symbol: "SPARK", Supply: 1}},
		},
		{
			name:        "empty",
			input:       Catalog{},
			expectedErr: ErrEmptyCatalog,
		},
		{
			name:        "blank name",
			input:       Catalog{{Name: "  ", Symbol: "X"}},
			expectedErr: ErrInvalidName,
		},
		{
			name:        "path separator in name",
			input:       Catalog{{Name: "a/b", Symbol: "X"}},
			expectedErr: ErrInvalidName,
		},
		{
			name:        "blank symbol",
			input:       Catalog{{Name: "FLAME", Symbol: ""}},
			expectedErr: ErrInvalidSymbol,
		},
		{
			name: "names collide after lower-casing",
			input: Catalog{
				{Name: "Flame", Symbol: "F1"},
				{Name: "FLAME", Symbol: "F2"},
			},
			expectedErr: ErrDuplicateName,
		},
		{
			name: "duplicate symbols are allowed",
			input: Catalog{
				{Name: "A", Symbol: "SAME"},
				{Name: "B", Symbol: "SAME"},
			},
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.input.Validate()
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestKeyFileName(t *testing.T) {
	assert.Equal(t, "tier_0_incinerator.json", Definition{Name: "INCINERATOR"}.KeyFileName(0))
	assert.Equal(t, "tier_1_spark.json", Definition{Name: "SPARK"}.KeyFileName(1))
}

func TestParseCatalog(t *testing.T) {
	data := []byte(`
tiers:
  - name: INCINERATOR
    symbol: INCNR
    supply: 33
  - name: SPARK
    symbol: SPARK
    supply: 4444
    uri: https://example.com/spark.json
`)
	c, err := ParseCatalog(data)
	require.NoError(t, err)
	require.Len(t, c, 2)
	assert.Equal(t, []string{"INCINERATOR", "SPARK"}, c.Names())
	assert.Equal(t, "https://example.com/spark.json", c[1].URI)

	_, err = ParseCatalog([]byte("tiers:\n  - name: X\n    symbl: Y\n"))
	assert.ErrorIs(t, err, ErrInvalidCatalog)

	_, err = ParseCatalog([]byte("tiers: []\n"))
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog(), c)

	path := filepath.Join(t.TempDir(), "tiers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tiers:\n  - name: FLAME\n    symbol: FLAME\n    supply: 888\n"), 0o644))
	c, err = LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, Catalog{{Name: "FLAME", Symbol: "FLAME", Supply: 888}}, c)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
