package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 에러, DB row에서 이 상수를 사용해야 함
//
// 엔티티 단위 흐름:
//   company → facts → statements → kpi
// 런 단위 흐름:
//   collect → merge → report → upload

// Stage represents a pipeline stage
type Stage string

const (
	// StageCompany: 회사 메타데이터 (ticker, 10-K filing 목록)
	// 위치: internal/external/sec/
	StageCompany Stage = "company"

	// StageFacts: GAAP fact 테이블 (concept × year, 최신 filing 우선)
	// 위치: internal/facts/
	StageFacts Stage = "facts"

	// StageStatements: 재무제표 (income / balance / cashflow) 로딩
	// 위치: internal/external/sec/
	StageStatements Stage = "statements"

	// StageKPI: 10개 파생 지표 계산
	// 위치: internal/kpi/
	StageKPI Stage = "kpi"

	// StageCollect: 엔티티 worker pool 실행
	// 위치: internal/pipeline/
	StageCollect Stage = "collect"

	// StageMerge: coverage 비교 후 final dataset 갱신
	// 위치: internal/merge/
	StageMerge Stage = "merge"

	// StageReport: 메타데이터 JSON / coverage CSV / 메일
	// 위치: internal/reporting/
	StageReport Stage = "report"

	// StageUpload: object storage 업로드
	// 위치: internal/reporting/
	StageUpload Stage = "upload"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// EntityStages returns the per-entity stages in execution order
func EntityStages() []Stage {
	return []Stage{StageCompany, StageFacts, StageStatements, StageKPI}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return append(EntityStages(), StageCollect, StageMerge, StageReport, StageUpload)
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}
