package sec

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/pkg/redis"
)

// filingSummary is the report index EDGAR renders for each XBRL filing
type filingSummary struct {
	Reports []filingReport `xml:"MyReports>Report"`
}

type filingReport struct {
	ShortName    string `xml:"ShortName"`
	LongName     string `xml:"LongName"`
	HtmlFileName string `xml:"HtmlFileName"`
	MenuCategory string `xml:"MenuCategory"`
}

// classifyReport maps a report short name to the statement it renders
func classifyReport(shortName string) (contracts.StatementKind, bool) {
	name := strings.ToLower(shortName)
	if strings.Contains(name, "parenthetical") {
		return "", false
	}
	switch {
	case strings.Contains(name, "cash flow"):
		return contracts.StatementCashFlow, true
	case strings.Contains(name, "balance sheet"),
		strings.Contains(name, "financial position"),
		strings.Contains(name, "financial condition"):
		return contracts.StatementBalance, true
	case strings.Contains(name, "comprehensive"):
		return "", false
	case strings.Contains(name, "operations"),
		strings.Contains(name, "income"),
		strings.Contains(name, "earnings"):
		return contracts.StatementIncome, true
	}
	return "", false
}

// FilingStatementSource parses the rendered statements of each filing.
// Filings are merged newest first so restated values win; a filing without
// a FilingSummary.xml is skipped.
func (c *Client) FilingStatementSource(ctx context.Context, company *contracts.Company, filings []contracts.Filing) (StatementSet, error) {
	ordered := append([]contracts.Filing(nil), filings...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].FilingDate > ordered[j].FilingDate })

	perKind := map[contracts.StatementKind][]*contracts.RawStatementTable{}
	for _, f := range ordered {
		tables, err := c.filingStatements(ctx, company.CIK, f)
		if errors.Is(err, ErrNotFound) {
			c.logger.WithFields(map[string]interface{}{
				"cik":       company.CIK,
				"accession": f.AccessionNumber,
			}).Warn("Filing has no rendered statements")
			continue
		}
		if err != nil {
			return nil, err
		}
		for kind, t := range tables {
			perKind[kind] = append(perKind[kind], t)
		}
	}

	set := StatementSet{}
	for kind, tables := range perKind {
		if merged := mergeTables(tables...); merged != nil {
			set[kind] = merged
		}
	}
	return set, nil
}

// filingStatements returns the first report of each statement kind in one filing
func (c *Client) filingStatements(ctx context.Context, cik string, f contracts.Filing) (map[contracts.StatementKind]*contracts.RawStatementTable, error) {
	base := c.filingBaseURL(cik, f.AccessionNumber)
	data, err := c.fetch(ctx, base+"/FilingSummary.xml", redis.FilingDocumentKey(cik, f.AccessionNumber, "FilingSummary.xml"))
	if err != nil {
		return nil, err
	}

	var summary filingSummary
	if err := xml.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("filing summary %s: %w", f.AccessionNumber, err)
	}

	out := map[contracts.StatementKind]*contracts.RawStatementTable{}
	for _, r := range summary.Reports {
		kind, ok := classifyReport(r.ShortName)
		if !ok || out[kind] != nil || !strings.HasSuffix(strings.ToLower(r.HtmlFileName), ".htm") {
			continue
		}

		page, err := c.fetch(ctx, base+"/"+r.HtmlFileName, redis.FilingDocumentKey(cik, f.AccessionNumber, r.HtmlFileName))
		if errors.Is(err, ErrNotFound) {
			c.logger.WithFields(map[string]interface{}{
				"accession": f.AccessionNumber,
				"report":    r.HtmlFileName,
			}).Warn("Statement report missing")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("report %s of %s: %w", r.HtmlFileName, f.AccessionNumber, err)
		}
		table, err := ParseReport(page)
		if err != nil {
			return nil, fmt.Errorf("report %s of %s: %w", r.HtmlFileName, f.AccessionNumber, err)
		}
		if !table.Empty() {
			out[kind] = table
		}
	}
	return out, nil
}

// ParseReport reads an EDGAR R*.htm statement page.
// Columns come from the last header row; each body row yields its label and raw cell text.
func ParseReport(page []byte) (*contracts.RawStatementTable, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	report := doc.Find("table.report").First()
	if report.Length() == 0 {
		report = doc.Find("table").First()
	}

	table := &contracts.RawStatementTable{}
	report.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if headers := tr.Find("th").Not(".tl"); headers.Length() > 0 && tr.Find("td").Length() == 0 {
			table.Columns = table.Columns[:0]
			headers.Each(func(_ int, th *goquery.Selection) {
				table.Columns = append(table.Columns, cellText(th))
			})
		}
	})

	report.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 2 {
			return
		}
		label := cellText(cells.First())
		if label == "" {
			return
		}
		row := contracts.StatementRow{Label: label}
		cells.Slice(1, cells.Length()).Each(func(_ int, td *goquery.Selection) {
			row.Values = append(row.Values, cellText(td))
		})
		table.Rows = append(table.Rows, row)
	})
	return table, nil
}

// cellText drops footnote markers and collapses whitespace
func cellText(s *goquery.Selection) string {
	s = s.Clone()
	s.Find("sup").Remove()
	return strings.Join(strings.Fields(s.Text()), " ")
}
