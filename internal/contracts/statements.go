package contracts

import "time"

// StatementKind identifies one of the three primary financial statements
type StatementKind string

const (
	StatementIncome   StatementKind = "income"
	StatementBalance  StatementKind = "balance"
	StatementCashFlow StatementKind = "cashflow"
)

// StatementKinds returns every supported statement kind
func StatementKinds() []StatementKind {
	return []StatementKind{StatementIncome, StatementBalance, StatementCashFlow}
}

// IsValid reports whether k is a known statement kind
func (k StatementKind) IsValid() bool {
	switch k {
	case StatementIncome, StatementBalance, StatementCashFlow:
		return true
	}
	return false
}

// StatementRow is one reported line item; Values align with the table's Columns
type StatementRow struct {
	Label  string   `json:"label"`
	Values []string `json:"values"`
}

// RawStatementTable is a statement as reported: free-form period columns, raw cell text
type RawStatementTable struct {
	Columns []string       `json:"columns"`
	Rows    []StatementRow `json:"rows"`
}

// Empty reports whether the table carries no rows
func (t *RawStatementTable) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// StatementSource gives access to one entity's statements by kind.
// Get returns nil when the statement is unavailable.
type StatementSource interface {
	Get(kind StatementKind) *RawStatementTable
}

// FactRecord is one reported XBRL fact
type FactRecord struct {
	Concept      string   `json:"concept"` // namespaced tag, e.g. us-gaap:NetIncomeLoss
	Label        string   `json:"label,omitempty"`
	Form         string   `json:"form"`
	FiscalYear   int      `json:"fiscal_year"`
	FiscalPeriod string   `json:"fiscal_period,omitempty"`
	FilingDate   string   `json:"filing_date"` // YYYY-MM-DD
	Value        *float64 `json:"value"`
	Unit         string   `json:"unit,omitempty"`
	Accession    string   `json:"accession,omitempty"`
	Start        string   `json:"start,omitempty"`
	End          string   `json:"end,omitempty"`
}

// Annual duration facts span roughly one year
const (
	MinAnnualDays = 350
	MaxAnnualDays = 380
)

// AnnualPeriod parses a fact period and returns its end date.
// ok is false unless the period is an instant (no start) or an annual duration.
func AnnualPeriod(start, end string) (time.Time, bool) {
	endDate, err := time.Parse(time.DateOnly, end)
	if err != nil {
		return time.Time{}, false
	}
	if start == "" {
		return endDate, true
	}
	startDate, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return time.Time{}, false
	}
	days := int(endDate.Sub(startDate).Hours() / 24)
	return endDate, days >= MinAnnualDays && days <= MaxAnnualDays
}

// Filing is one entry of an entity's filing index
type Filing struct {
	AccessionNumber string `json:"accession_number"`
	Form            string `json:"form"`
	FilingDate      string `json:"filing_date"`
	ReportDate      string `json:"report_date,omitempty"`
	PrimaryDocument string `json:"primary_document,omitempty"`
}

// Company is the entity metadata needed by the pipeline
type Company struct {
	CIK     string   `json:"cik"`
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
	Filings []Filing `json:"filings"`
}

// Ticker returns the first listed ticker or DefaultTicker
func (c *Company) Ticker() string {
	if c == nil || len(c.Tickers) == 0 || c.Tickers[0] == "" {
		return DefaultTicker
	}
	return c.Tickers[0]
}
