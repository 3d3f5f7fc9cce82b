package kpi

import (
	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/internal/extract"
	"github.com/wonny/finrag-metrics/internal/metricsconfig"
)

// Statements holds the normalized rows the KPI formulas read
type Statements struct {
	Revenue            contracts.YearSeries
	OperatingIncome    contracts.YearSeries
	NetIncome          contracts.YearSeries
	TotalAssets        contracts.YearSeries
	Equity             contracts.YearSeries
	TotalLiabilities   contracts.YearSeries
	CurrentAssets      contracts.YearSeries
	CurrentLiabilities contracts.YearSeries
	Inventory          contracts.YearSeries
	CFO                contracts.YearSeries
	CapEx              contracts.YearSeries
}

// Extract reads every row from src, applying the fallback derivations
func (e *Engine) Extract(src contracts.StatementSource) Statements {
	income := table(src, contracts.StatementIncome)
	balance := table(src, contracts.StatementBalance)
	cashflow := table(src, contracts.StatementCashFlow)

	equity := e.single(balance, metricsconfig.RowEquity)

	return Statements{
		Revenue:            e.revenue(income),
		OperatingIncome:    e.operatingIncome(income),
		NetIncome:          e.single(income, metricsconfig.RowNetIncome),
		TotalAssets:        e.single(balance, metricsconfig.RowTotalAssets),
		Equity:             equity,
		TotalLiabilities:   e.totalLiabilities(balance, equity),
		CurrentAssets:      e.single(balance, metricsconfig.RowCurrentAssets),
		CurrentLiabilities: e.single(balance, metricsconfig.RowCurrentLiabilities),
		Inventory:          e.single(balance, metricsconfig.RowInventory),
		CFO:                e.single(cashflow, metricsconfig.RowCFO),
		CapEx:              Abs(e.single(cashflow, metricsconfig.RowCapEx)),
	}
}

func table(src contracts.StatementSource, kind contracts.StatementKind) *contracts.RawStatementTable {
	if src == nil {
		return nil
	}
	return src.Get(kind)
}

func (e *Engine) single(t *contracts.RawStatementTable, row string) contracts.YearSeries {
	return extract.Single(t, e.cfg.RowAliasList(row))
}

// revenue sums the revenue aliases; the fallback list is used only when nothing matched
func (e *Engine) revenue(income *contracts.RawStatementTable) contracts.YearSeries {
	rev := extract.Summed(income, e.cfg.RowAliasList(metricsconfig.RowRevenue))
	if !rev.Empty() {
		return rev
	}
	return e.single(income, metricsconfig.RowRevenueFallback)
}

// operatingIncome: direct row → income before tax → gross profit − SG&A − R&D
func (e *Engine) operatingIncome(income *contracts.RawStatementTable) contracts.YearSeries {
	if op := e.single(income, metricsconfig.RowOperatingIncome); !op.Empty() {
		return op
	}
	if op := e.single(income, metricsconfig.RowIncomeBeforeTax); !op.Empty() {
		return op
	}

	gp := e.single(income, metricsconfig.RowGrossProfit)
	sga := e.single(income, metricsconfig.RowSGA)
	rnd := e.single(income, metricsconfig.RowRnD)
	return Sub(Sub(gp, sga), rnd)
}

// totalLiabilities: direct row → current + noncurrent → liabilities and equity − equity
func (e *Engine) totalLiabilities(balance *contracts.RawStatementTable, equity contracts.YearSeries) contracts.YearSeries {
	if liab := e.single(balance, metricsconfig.RowTotalLiabilities); !liab.Empty() {
		return liab
	}
	if liab := extract.Summed(balance, e.cfg.RowAliasList(metricsconfig.RowSplitLiabilities)); !liab.Empty() {
		return liab
	}

	tlse := e.single(balance, metricsconfig.RowLiabilitiesAndEquity)
	if tlse.Empty() || equity.Empty() {
		return contracts.YearSeries{}
	}
	return Sub(tlse, equity)
}
