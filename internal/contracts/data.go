package contracts

import (
	"sort"
	"strconv"
	"strings"
)

// MetricType distinguishes reported facts from computed ratios
type MetricType string

const (
	MetricTypeGAAP    MetricType = "gaap"
	MetricTypeDerived MetricType = "derived"
)

// DefaultTicker is used when an entity has no listed ticker
const DefaultTicker = "UNKNOWN"

// DatasetColumns is the persisted dataset schema in wire order
// ⭐ SSOT: 런 간 호환 계약. 순서/이름 변경 금지
var DatasetColumns = []string{
	"cik", "ticker", "year",
	"metric_gaap", "metric_code", "metric_key", "metric_label",
	"metric_type",
	"value", "unit", "form", "filed_date", "accession_no",
}

// CanonicalMetricRecord is one row of the analytical layer.
// metric_gaap, metric_code, form, filed_date and accession_no are nil for derived rows.
type CanonicalMetricRecord struct {
	CIK         string     `json:"cik"`
	Ticker      string     `json:"ticker"`
	Year        int        `json:"year"`
	MetricGAAP  *string    `json:"metric_gaap"`
	MetricCode  *string    `json:"metric_code"`
	MetricKey   *string    `json:"metric_key"`
	MetricLabel string     `json:"metric_label"`
	MetricType  MetricType `json:"metric_type"`
	Value       float64    `json:"value"`
	Unit        *string    `json:"unit"`
	Form        *string    `json:"form"`
	FiledDate   *string    `json:"filed_date"`
	AccessionNo *string    `json:"accession_no"`
}

// IsDerived reports whether the record is a computed KPI
func (r *CanonicalMetricRecord) IsDerived() bool {
	return r.MetricType == MetricTypeDerived
}

// Identity returns the uniqueness key (cik, year, metric_key, metric_type).
// Records without a canonical key fall back to their label.
func (r *CanonicalMetricRecord) Identity() string {
	key := r.MetricLabel
	if r.MetricKey != nil && *r.MetricKey != "" {
		key = *r.MetricKey
	}
	return strings.Join([]string{r.CIK, strconv.Itoa(r.Year), key, string(r.MetricType)}, "|")
}

// StrPtr returns a pointer to s, or nil when s is empty
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StrVal dereferences p, returning "" for nil
func StrVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// SortRecords orders records by (cik, year, metric_type, metric_key, metric_label)
func SortRecords(records []CanonicalMetricRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.CIK != b.CIK {
			return a.CIK < b.CIK
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.MetricType != b.MetricType {
			return a.MetricType < b.MetricType
		}
		if ak, bk := StrVal(a.MetricKey), StrVal(b.MetricKey); ak != bk {
			return ak < bk
		}
		return a.MetricLabel < b.MetricLabel
	})
}

// PadCIK keeps the digits of cik and left-pads them to 10 characters
func PadCIK(cik string) string {
	digits := onlyDigits(cik)
	if len(digits) >= 10 {
		return digits
	}
	return strings.Repeat("0", 10-len(digits)) + digits
}

// RawCIK strips leading zeros ("0000200406" → "200406")
func RawCIK(cik string) string {
	s := strings.TrimLeft(onlyDigits(cik), "0")
	if s == "" {
		return "0"
	}
	return s
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Entity is a tracked reporting company
type Entity struct {
	CIK    string `json:"cik" yaml:"cik"`
	Ticker string `json:"ticker,omitempty" yaml:"ticker,omitempty"`
}

// YearRange is an inclusive fiscal-year window
type YearRange struct {
	Start int `json:"start_year"`
	End   int `json:"end_year"`
}

// LastNYears returns the window of n years ending at end
func LastNYears(end, n int) YearRange {
	if n < 1 {
		n = 1
	}
	return YearRange{Start: end - n + 1, End: end}
}

// Years lists the years of the window in ascending order
func (r YearRange) Years() []int {
	if r.End < r.Start {
		return nil
	}
	years := make([]int, 0, r.End-r.Start+1)
	for y := r.Start; y <= r.End; y++ {
		years = append(years, y)
	}
	return years
}

// Contains reports whether year falls inside the window
func (r YearRange) Contains(year int) bool {
	return year >= r.Start && year <= r.End
}

// Len returns the number of years in the window
func (r YearRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// YearSeries maps fiscal year to value. A missing key means the value is absent; NaN is never stored.
type YearSeries map[int]float64

// Get returns the value for year and whether it is present
func (s YearSeries) Get(year int) (float64, bool) {
	v, ok := s[year]
	return v, ok
}

// Years returns the years present in ascending order
func (s YearSeries) Years() []int {
	years := make([]int, 0, len(s))
	for y := range s {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Empty reports whether the series has no values
func (s YearSeries) Empty() bool {
	return len(s) == 0
}
