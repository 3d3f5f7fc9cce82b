package metricsconfig

import (
	"sort"
	"sync"

	"github.com/wonny/finrag-metrics/internal/contracts"
)

// Statement row keys
// ⭐ SSOT: KPI 엔진이 참조하는 row 이름은 여기서만 정의
const (
	RowRevenue              = "revenue"
	RowRevenueFallback      = "revenue_fallback"
	RowOperatingIncome      = "operating_income"
	RowIncomeBeforeTax      = "income_before_tax"
	RowGrossProfit          = "gross_profit"
	RowSGA                  = "sga"
	RowRnD                  = "rnd"
	RowNetIncome            = "net_income"
	RowTotalAssets          = "total_assets"
	RowEquity               = "equity"
	RowCurrentAssets        = "current_assets"
	RowCurrentLiabilities   = "current_liabilities"
	RowTotalLiabilities     = "total_liabilities"
	RowSplitLiabilities     = "split_liabilities"
	RowLiabilitiesAndEquity = "liabilities_and_equity"
	RowInventory            = "inventory"
	RowCFO                  = "cfo"
	RowCapEx                = "capex"
)

// RequiredRows lists every row key the KPI engine reads
func RequiredRows() []string {
	return []string{
		RowRevenue, RowRevenueFallback, RowOperatingIncome, RowIncomeBeforeTax,
		RowGrossProfit, RowSGA, RowRnD, RowNetIncome,
		RowTotalAssets, RowEquity, RowCurrentAssets, RowCurrentLiabilities,
		RowTotalLiabilities, RowSplitLiabilities, RowLiabilitiesAndEquity, RowInventory,
		RowCFO, RowCapEx,
	}
}

// DerivedMetricCount is the fixed number of derived KPIs
const DerivedMetricCount = 10

// Derived metric canonical keys
const (
	KeyNetProfitMargin  = "net_profit_margin"
	KeyOperatingMargin  = "operating_margin"
	KeyROA              = "roa"
	KeyROE              = "roe"
	KeyCurrentRatio     = "current_ratio"
	KeyQuickRatio       = "quick_ratio"
	KeyDebtToEquity     = "debt_to_equity"
	KeyDebtToAssets     = "debt_to_assets"
	KeyFreeCashFlow     = "free_cash_flow"
	KeyOperatingCFRatio = "operating_cf_ratio"
)

// DerivedKeys lists the canonical keys the KPI engine knows how to compute
func DerivedKeys() []string {
	return []string{
		KeyNetProfitMargin, KeyOperatingMargin, KeyROA, KeyROE,
		KeyCurrentRatio, KeyQuickRatio, KeyDebtToEquity, KeyDebtToAssets,
		KeyFreeCashFlow, KeyOperatingCFRatio,
	}
}

// Config is the analytical layer metric configuration
// ⭐ SSOT: alias / exclusion / entity 설정은 이 구조체로만 접근
type Config struct {
	Version    string                `yaml:"version" json:"version"`
	Forms      []string              `yaml:"forms" json:"forms"`
	Entities   []contracts.Entity    `yaml:"entities" json:"entities"`
	Derived    []DerivedMetric       `yaml:"derived" json:"derived"`
	Rows       map[string]RowAliases `yaml:"rows" json:"rows"`
	Exclusions map[string]Exclusion  `yaml:"exclusions" json:"exclusions"`
	GAAP       map[string]GAAPAlias  `yaml:"gaap" json:"gaap"`

	indexOnce      sync.Once
	derivedByLabel map[string]DerivedMetric
	forms          map[string]bool
}

// DerivedMetric describes one derived KPI
type DerivedMetric struct {
	Label        string `yaml:"label" json:"label"`
	CanonicalKey string `yaml:"canonical_key" json:"canonical_key"`
	Unit         string `yaml:"unit" json:"unit"`
}

// RowAliases is the ordered list of labels accepted for one statement item
type RowAliases struct {
	Statement contracts.StatementKind `yaml:"statement" json:"statement"`
	Aliases   []string                `yaml:"aliases" json:"aliases"`
}

// Exclusion lists derived labels that do not apply to an entity
type Exclusion struct {
	All    []string         `yaml:"all,omitempty" json:"all,omitempty"`
	ByYear map[int][]string `yaml:"by_year,omitempty" json:"by_year,omitempty"`
}

// GAAPAlias maps a GAAP code to its canonical identity
type GAAPAlias struct {
	CanonicalKey string   `yaml:"canonical_key" json:"canonical_key"`
	HumanLabel   string   `yaml:"human_label" json:"human_label"`
	Aliases      []string `yaml:"aliases" json:"aliases"`
	Unit         string   `yaml:"unit,omitempty" json:"unit,omitempty"`
}

// index builds the lookup tables on first use; later edits to Derived or Forms are not seen
func (c *Config) index() {
	c.indexOnce.Do(func() {
		c.derivedByLabel = make(map[string]DerivedMetric, len(c.Derived))
		for _, d := range c.Derived {
			c.derivedByLabel[d.Label] = d
		}
		c.forms = make(map[string]bool, len(c.Forms))
		for _, f := range c.Forms {
			c.forms[f] = true
		}
	})
}

// DerivedLabels returns the derived KPI labels in configured order
func (c *Config) DerivedLabels() []string {
	labels := make([]string, len(c.Derived))
	for i, d := range c.Derived {
		labels[i] = d.Label
	}
	return labels
}

// DerivedByLabel looks up derived metric metadata
func (c *Config) DerivedByLabel(label string) (DerivedMetric, bool) {
	c.index()
	d, ok := c.derivedByLabel[label]
	return d, ok
}

// AcceptsForm reports whether form is an accepted annual filing form
func (c *Config) AcceptsForm(form string) bool {
	c.index()
	return c.forms[form]
}

// RowAliasList returns the ordered aliases for a row key
func (c *Config) RowAliasList(key string) []string {
	return c.Rows[key].Aliases
}

// EntityList returns the tracked entities with padded CIKs
func (c *Config) EntityList() []contracts.Entity {
	out := make([]contracts.Entity, len(c.Entities))
	for i, e := range c.Entities {
		out[i] = contracts.Entity{CIK: contracts.PadCIK(e.CIK), Ticker: e.Ticker}
	}
	return out
}

// CIKs returns the padded CIKs of every tracked entity
func (c *Config) CIKs() []string {
	out := make([]string, len(c.Entities))
	for i, e := range c.Entities {
		out[i] = contracts.PadCIK(e.CIK)
	}
	return out
}

// Concepts returns the GAAP codes to collect, sorted
func (c *Config) Concepts() []string {
	codes := make([]string, 0, len(c.GAAP))
	for code := range c.GAAP {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// ExcludedFor returns the derived labels not applicable to cik in year.
// "all" applies to every year; "by_year" adds year-specific labels.
func (c *Config) ExcludedFor(cik string, year int) map[string]bool {
	out := map[string]bool{}
	ex, ok := c.Exclusions[contracts.PadCIK(cik)]
	if !ok {
		return out
	}
	for _, l := range ex.All {
		out[l] = true
	}
	for _, l := range ex.ByYear[year] {
		out[l] = true
	}
	return out
}
