package ratestub

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rates.yaml
var defaultRates []byte

// RateTable holds mid rates quoted against a single base currency.
type RateTable struct {
	Base  string             `yaml:"base"`
	Rates map[string]float64 `yaml:"rates"`
}

// LoadTable reads a rate table from YAML. An empty path returns the
// built-in table.
func LoadTable(path string) (*RateTable, error) {
	data := defaultRates
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading rates file: %w", err)
		}
	}
	return ParseTable(data)
}

// ParseTable decodes and normalizes a YAML rate table.
func ParseTable(data []byte) (*RateTable, error) {
	var raw RateTable
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing rates: %w", err)
	}

	t := &RateTable{
		Base:  strings.ToUpper(raw.Base),
		Rates: make(map[string]float64, len(raw.Rates)),
	}
	for code, v := range raw.Rates {
		if v <= 0 {
			return nil, fmt.Errorf("rate for %s must be positive, got %v", code, v)
		}
		t.Rates[strings.ToUpper(code)] = v
	}
	if t.Base == "" {
		return nil, fmt.Errorf("base currency is required")
	}
	if _, ok := t.Rates[t.Base]; !ok {
		t.Rates[t.Base] = 1
	}
	return t, nil
}

// Cross returns how many units of buy one unit of sell is worth.
func (t *RateTable) Cross(sell, buy string) (float64, bool) {
	s, ok := t.Rates[strings.ToUpper(sell)]
	if !ok {
		return 0, false
	}
	b, ok := t.Rates[strings.ToUpper(buy)]
	if !ok {
		return 0, false
	}
	return b / s, true
}
