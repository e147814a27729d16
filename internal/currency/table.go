// Package currency provides the read-only country to currency mapping.
package currency

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed countries.yaml
var defaultCountries []byte

// Country is one selectable entry.
type Country struct {
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"`
}

type tableFile struct {
	Countries []Country `yaml:"countries"`
}

// Table maps country codes to currency codes. It is never mutated after
// construction.
type Table struct {
	countries []Country
	byCode    map[string]Country
}

// Default returns the built-in table.
func Default() *Table {
	t, err := Parse(defaultCountries)
	if err != nil {
		panic(fmt.Sprintf("currency: embedded table is invalid: %v", err))
	}
	return t
}

// Load reads a table from a YAML file. An empty path returns the built-in
// table.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading countries file: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a YAML table. Codes are upper-cased; duplicate or
// incomplete entries are rejected.
func Parse(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing countries: %w", err)
	}
	if len(f.Countries) == 0 {
		return nil, fmt.Errorf("no countries defined")
	}

	t := &Table{
		countries: make([]Country, 0, len(f.Countries)),
		byCode:    make(map[string]Country, len(f.Countries)),
	}
	for i, c := range f.Countries {
		c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
		c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
		if c.Code == "" || c.Currency == "" {
			return nil, fmt.Errorf("country #%d: code and currency are required", i+1)
		}
		if _, dup := t.byCode[c.Code]; dup {
			return nil, fmt.Errorf("duplicate country code %q", c.Code)
		}
		t.byCode[c.Code] = c
		t.countries = append(t.countries, c)
	}
	return t, nil
}

// Currency returns the currency code for a country code.
func (t *Table) Currency(country string) (string, bool) {
	c, ok := t.byCode[strings.ToUpper(country)]
	return c.Currency, ok
}

// Lookup returns the full entry for a country code.
func (t *Table) Lookup(country string) (Country, bool) {
	c, ok := t.byCode[strings.ToUpper(country)]
	return c, ok
}

// Countries returns the entries in file order. The slice is a copy.
func (t *Table) Countries() []Country {
	return append([]Country(nil), t.countries...)
}

// Len returns the number of countries.
func (t *Table) Len() int {
	return len(t.countries)
}
