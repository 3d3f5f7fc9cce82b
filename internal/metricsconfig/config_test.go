package metricsconfig

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/finrag-metrics/internal/contracts"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{"10-K", "10-K/A"}, cfg.Forms)
	assert.Len(t, cfg.Entities, 21)
	assert.Len(t, cfg.DerivedLabels(), DerivedMetricCount)
	assert.True(t, cfg.AcceptsForm("10-K/A"))
	assert.False(t, cfg.AcceptsForm("10-Q"))

	netIncome, ok := cfg.GAAP["NetIncomeLoss"]
	require.True(t, ok)
	assert.Equal(t, "net_income", netIncome.CanonicalKey)
	assert.Equal(t, "Net Income", netIncome.HumanLabel)

	d, ok := cfg.DerivedByLabel("ROA % (Avg Assets)")
	require.True(t, ok)
	assert.Equal(t, "roa", d.CanonicalKey)
	assert.Equal(t, "percent", d.Unit)

	for _, key := range RequiredRows() {
		assert.NotEmpty(t, cfg.RowAliasList(key), key)
	}
}

func TestHashDeterministic(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	b, err := Default()
	require.NoError(t, err)

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)

	assert.Len(t, ha, 64)
	assert.Equal(t, ha, hb)

	b.Forms = append(b.Forms, "20-F")
	hc, _ := Hash(b)
	assert.NotEqual(t, ha, hc)
}

func TestExcludedFor(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	ex := cfg.ExcludedFor("59478", 2024)
	assert.True(t, ex["Debt-to-Equity"])
	assert.True(t, ex["Debt-to-Assets"])
	assert.Len(t, ex, 2)

	assert.Empty(t, cfg.ExcludedFor("0000320193", 2024))
}

func TestExcludedForByYear(t *testing.T) {
	cfg := &Config{Exclusions: map[string]Exclusion{
		"0000320193": {
			All:    []string{"Quick Ratio"},
			ByYear: map[int][]string{2024: {"Free Cash Flow"}},
		},
	}}

	assert.Equal(t, map[string]bool{"Quick Ratio": true, "Free Cash Flow": true}, cfg.ExcludedFor("320193", 2024))
	assert.Equal(t, map[string]bool{"Quick Ratio": true}, cfg.ExcludedFor("320193", 2025))
}

func TestCIKsArePadded(t *testing.T) {
	cfg := &Config{Entities: []contracts.Entity{{CIK: "320193"}, {CIK: "0000789019", Ticker: "MSFT"}}}
	assert.Equal(t, []string{"0000320193", "0000789019"}, cfg.CIKs())
	assert.Equal(t, "MSFT", cfg.EntityList()[1].Ticker)
}

func TestLookupsOnLiteralConfigAreConcurrent(t *testing.T) {
	cfg := &Config{
		Forms:   []string{"10-K"},
		Derived: []DerivedMetric{{Label: "Free Cash Flow", CanonicalKey: KeyFreeCashFlow, Unit: "USD"}},
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, cfg.AcceptsForm("10-K"))
			assert.False(t, cfg.AcceptsForm("10-Q"))
			d, ok := cfg.DerivedByLabel("Free Cash Flow")
			assert.True(t, ok)
			assert.Equal(t, KeyFreeCashFlow, d.CanonicalKey)
		}()
	}
	wg.Wait()
}

func TestParseRejectsUnknownFields(t *testing.T) {
	data := append(DefaultYAML(), []byte("\nunknown_section: true\n")...)
	_, err := Parse(data)
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.yaml")
	require.NoError(t, os.WriteFile(path, DefaultYAML(), 0o644))

	cfg, raw, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Len(t, cfg.Entities, 21)

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"no forms", func(c *Config) { c.Forms = nil }, "forms"},
		{"no entities", func(c *Config) { c.Entities = nil }, "entities"},
		{"non-numeric cik", func(c *Config) { c.Entities[0].CIK = "AAPL" }, "entities[0].cik"},
		{"nine derived", func(c *Config) { c.Derived = c.Derived[:9] }, "derived"},
		{"unknown derived key", func(c *Config) { c.Derived[0].CanonicalKey = "ebitda_margin" }, "derived[0].canonical_key"},
		{"derived without unit", func(c *Config) { c.Derived[2].Unit = "" }, "derived[2].unit"},
		{"empty row aliases", func(c *Config) {
			c.Rows[RowCapEx] = RowAliases{Statement: contracts.StatementCashFlow}
		}, "rows.capex"},
		{"unknown exclusion label", func(c *Config) {
			c.Exclusions["0000320193"] = Exclusion{All: []string{"EBITDA Margin"}}
		}, "exclusions.0000320193.all"},
		{"gaap without label", func(c *Config) {
			c.GAAP["Assets"] = GAAPAlias{CanonicalKey: "total_assets"}
		}, "gaap.Assets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default()
			require.NoError(t, err)

			tt.mutate(cfg)
			err = Validate(cfg)
			require.Error(t, err)

			var cfgErr *contracts.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.True(t, contracts.IsFatal(err))
		})
	}
}
