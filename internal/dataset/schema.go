package dataset

import (
	"math"

	"github.com/wonny/finrag-metrics/internal/contracts"
)

// Row is the Parquet layout of one canonical record.
// Every column is OPTIONAL so files written by other producers decode too.
type Row struct {
	CIK         *string  `parquet:"name=cik, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Ticker      *string  `parquet:"name=ticker, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Year        *int64   `parquet:"name=year, type=INT64"`
	MetricGAAP  *string  `parquet:"name=metric_gaap, type=BYTE_ARRAY, convertedtype=UTF8"`
	MetricCode  *string  `parquet:"name=metric_code, type=BYTE_ARRAY, convertedtype=UTF8"`
	MetricKey   *string  `parquet:"name=metric_key, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	MetricLabel *string  `parquet:"name=metric_label, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	MetricType  *string  `parquet:"name=metric_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Value       *float64 `parquet:"name=value, type=DOUBLE"`
	Unit        *string  `parquet:"name=unit, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Form        *string  `parquet:"name=form, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	FiledDate   *string  `parquet:"name=filed_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	AccessionNo *string  `parquet:"name=accession_no, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func toRow(r contracts.CanonicalMetricRecord) Row {
	year := int64(r.Year)
	value := r.Value
	row := Row{
		CIK:         strRef(r.CIK),
		Ticker:      strRef(r.Ticker),
		Year:        &year,
		MetricGAAP:  r.MetricGAAP,
		MetricCode:  r.MetricCode,
		MetricKey:   r.MetricKey,
		MetricLabel: strRef(r.MetricLabel),
		MetricType:  strRef(string(r.MetricType)),
		Unit:        r.Unit,
		Form:        r.Form,
		FiledDate:   r.FiledDate,
		AccessionNo: r.AccessionNo,
	}
	if !math.IsNaN(value) {
		row.Value = &value
	}
	return row
}

func fromRow(row Row) contracts.CanonicalMetricRecord {
	rec := contracts.CanonicalMetricRecord{
		CIK:         contracts.StrVal(row.CIK),
		Ticker:      contracts.StrVal(row.Ticker),
		MetricGAAP:  row.MetricGAAP,
		MetricCode:  row.MetricCode,
		MetricKey:   row.MetricKey,
		MetricLabel: contracts.StrVal(row.MetricLabel),
		MetricType:  contracts.MetricType(contracts.StrVal(row.MetricType)),
		Value:       math.NaN(),
		Unit:        row.Unit,
		Form:        row.Form,
		FiledDate:   row.FiledDate,
		AccessionNo: row.AccessionNo,
	}
	if row.Year != nil {
		rec.Year = int(*row.Year)
	}
	if row.Value != nil {
		rec.Value = *row.Value
	}
	return rec
}

func strRef(s string) *string {
	return &s
}
