package sec

import (
	"context"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/internal/metricsconfig"
)

// Statement source modes
const (
	SourceFacts  = "facts"
	SourceFiling = "filing"
)

// Provider serves company metadata, facts and statements from EDGAR
type Provider struct {
	client  *Client
	metrics *metricsconfig.Config
	mode    string
}

var _ contracts.Provider = (*Provider)(nil)

// NewProvider creates a provider; mode selects how statements are built
func NewProvider(client *Client, metrics *metricsconfig.Config, mode string) *Provider {
	if mode != SourceFiling {
		mode = SourceFacts
	}
	return &Provider{client: client, metrics: metrics, mode: mode}
}

// FetchCompany implements contracts.CompanyProvider
func (p *Provider) FetchCompany(ctx context.Context, cik string) (*contracts.Company, error) {
	return p.client.FetchCompany(ctx, cik)
}

// FetchEntityFacts implements contracts.FactsProvider
func (p *Provider) FetchEntityFacts(ctx context.Context, cik string) ([]contracts.FactRecord, error) {
	return p.client.FetchEntityFacts(ctx, cik)
}

// FetchStatements implements contracts.StatementProvider
func (p *Provider) FetchStatements(ctx context.Context, company *contracts.Company, filings []contracts.Filing) (contracts.StatementSource, error) {
	if p.mode == SourceFiling {
		return p.client.FilingStatementSource(ctx, company, filings)
	}

	facts, err := p.client.FetchEntityFacts(ctx, company.CIK)
	if err != nil {
		return nil, err
	}
	return FactsStatementSource(p.metrics, facts, filings), nil
}

// Mode returns the active statement source mode
func (p *Provider) Mode() string {
	return p.mode
}
