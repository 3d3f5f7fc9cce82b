package sec

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/pkg/redis"
)

// submissionsResponse is the submissions API payload; recent filings are parallel arrays, newest first
type submissionsResponse struct {
	CIK     string   `json:"cik"`
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			ReportDate      []string `json:"reportDate"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// FetchCompany returns the entity name, tickers and recent filings of cik
func (c *Client) FetchCompany(ctx context.Context, cik string) (*contracts.Company, error) {
	padded := contracts.PadCIK(cik)
	url := fmt.Sprintf("%s/submissions/CIK%s.json", c.baseURL, padded)

	var resp submissionsResponse
	if err := c.fetchJSON(ctx, url, redis.SubmissionsKey(padded), &resp); err != nil {
		return nil, fmt.Errorf("submissions %s: %w", padded, err)
	}

	recent := resp.Filings.Recent
	company := &contracts.Company{
		CIK:     padded,
		Name:    resp.Name,
		Tickers: resp.Tickers,
		Filings: make([]contracts.Filing, 0, len(recent.AccessionNumber)),
	}
	for i, acc := range recent.AccessionNumber {
		company.Filings = append(company.Filings, contracts.Filing{
			AccessionNumber: acc,
			Form:            at(recent.Form, i),
			FilingDate:      at(recent.FilingDate, i),
			ReportDate:      at(recent.ReportDate, i),
			PrimaryDocument: at(recent.PrimaryDocument, i),
		})
	}
	return company, nil
}

// AnnualFilings returns up to n of the company's most recent filings whose form is accepted
func AnnualFilings(company *contracts.Company, accepts func(form string) bool, n int) []contracts.Filing {
	var out []contracts.Filing
	if company == nil {
		return out
	}
	for _, f := range company.Filings {
		if len(out) == n {
			break
		}
		if accepts(f.Form) {
			out = append(out, f)
		}
	}
	return out
}

// filingBaseURL is the archive folder of one filing
func (c *Client) filingBaseURL(cik, accession string) string {
	return fmt.Sprintf("%s/%s/%s", c.archivesURL, contracts.RawCIK(cik), strings.ReplaceAll(accession, "-", ""))
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
