package sec

import (
	"context"
	"fmt"
	"sort"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/pkg/redis"
)

// companyFactsResponse is the XBRL companyfacts API payload
type companyFactsResponse struct {
	CIK        int                                `json:"cik"`
	EntityName string                             `json:"entityName"`
	Facts      map[string]map[string]conceptFacts `json:"facts"` // taxonomy → concept
}

type conceptFacts struct {
	Label       string                 `json:"label"`
	Description string                 `json:"description"`
	Units       map[string][]factValue `json:"units"`
}

type factValue struct {
	Start string   `json:"start"`
	End   string   `json:"end"`
	Val   *float64 `json:"val"`
	Accn  string   `json:"accn"`
	FY    *int     `json:"fy"`
	FP    string   `json:"fp"`
	Form  string   `json:"form"`
	Filed string   `json:"filed"`
	Frame string   `json:"frame"`
}

// FetchEntityFacts returns every reported fact of cik as flat records.
// Records are ordered by (taxonomy, concept, unit) with EDGAR's order kept inside each unit.
func (c *Client) FetchEntityFacts(ctx context.Context, cik string) ([]contracts.FactRecord, error) {
	padded := contracts.PadCIK(cik)
	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", c.baseURL, padded)

	var resp companyFactsResponse
	if err := c.fetchJSON(ctx, url, redis.CompanyFactsKey(padded), &resp); err != nil {
		return nil, fmt.Errorf("companyfacts %s: %w", padded, err)
	}

	records := flattenFacts(&resp)
	c.logger.WithFields(map[string]interface{}{
		"cik":   padded,
		"facts": len(records),
	}).Debug("Fetched company facts")
	return records, nil
}

func flattenFacts(resp *companyFactsResponse) []contracts.FactRecord {
	var out []contracts.FactRecord
	for _, taxonomy := range sortedKeys(resp.Facts) {
		concepts := resp.Facts[taxonomy]
		for _, concept := range sortedKeys(concepts) {
			cf := concepts[concept]
			for _, unit := range sortedKeys(cf.Units) {
				for _, v := range cf.Units[unit] {
					rec := contracts.FactRecord{
						Concept:      taxonomy + ":" + concept,
						Label:        cf.Label,
						Form:         v.Form,
						FiscalPeriod: v.FP,
						FilingDate:   v.Filed,
						Value:        v.Val,
						Unit:         unit,
						Accession:    v.Accn,
						Start:        v.Start,
						End:          v.End,
					}
					if v.FY != nil {
						rec.FiscalYear = *v.FY
					}
					out = append(out, rec)
				}
			}
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
