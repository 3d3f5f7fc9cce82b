package contracts

import "context"

// CompanyProvider resolves entity metadata and its filing index
// ⭐ SSOT: 외부 데이터 제공자 인터페이스
type CompanyProvider interface {
	FetchCompany(ctx context.Context, cik string) (*Company, error)
}

// FactsProvider returns every reported fact of an entity
type FactsProvider interface {
	FetchEntityFacts(ctx context.Context, cik string) ([]FactRecord, error)
}

// StatementProvider loads the statements reported in a set of filings
type StatementProvider interface {
	FetchStatements(ctx context.Context, company *Company, filings []Filing) (StatementSource, error)
}

// Provider bundles the three capabilities a collector needs
type Provider interface {
	CompanyProvider
	FactsProvider
	StatementProvider
}
