package metricsconfig

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wonny/finrag-metrics/internal/contracts"
)

var cikPattern = regexp.MustCompile(`^\d{1,10}$`)

func configErr(field, format string, args ...interface{}) error {
	return &contracts.ConfigurationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks all required constraints
// 실패 시 *contracts.ConfigurationError 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Forms ===
	if len(cfg.Forms) == 0 {
		return configErr("forms", "at least one filing form is required")
	}

	// === Entities ===
	if len(cfg.Entities) == 0 {
		return configErr("entities", "at least one entity is required")
	}
	seen := map[string]bool{}
	for i, e := range cfg.Entities {
		if !cikPattern.MatchString(e.CIK) {
			return configErr(fmt.Sprintf("entities[%d].cik", i), "must be numeric, got %q", e.CIK)
		}
		padded := contracts.PadCIK(e.CIK)
		if seen[padded] {
			return configErr(fmt.Sprintf("entities[%d].cik", i), "duplicate cik %s", padded)
		}
		seen[padded] = true
	}

	// === Derived ===
	if len(cfg.Derived) != DerivedMetricCount {
		return configErr("derived", "expected %d derived metrics, got %d", DerivedMetricCount, len(cfg.Derived))
	}
	labels := map[string]bool{}
	knownKeys := map[string]bool{}
	for _, k := range DerivedKeys() {
		knownKeys[k] = true
	}
	usedKeys := map[string]bool{}
	for i, d := range cfg.Derived {
		field := fmt.Sprintf("derived[%d]", i)
		if strings.TrimSpace(d.Label) == "" {
			return configErr(field+".label", "required")
		}
		if d.CanonicalKey == "" {
			return configErr(field+".canonical_key", "required for %q", d.Label)
		}
		if !knownKeys[d.CanonicalKey] {
			return configErr(field+".canonical_key", "unknown derived key %q", d.CanonicalKey)
		}
		if usedKeys[d.CanonicalKey] {
			return configErr(field+".canonical_key", "duplicate key %q", d.CanonicalKey)
		}
		usedKeys[d.CanonicalKey] = true
		if d.Unit == "" {
			return configErr(field+".unit", "required for %q", d.Label)
		}
		if labels[d.Label] {
			return configErr(field+".label", "duplicate label %q", d.Label)
		}
		labels[d.Label] = true
	}

	// === Rows ===
	for _, key := range RequiredRows() {
		row, ok := cfg.Rows[key]
		if !ok || len(row.Aliases) == 0 {
			return configErr("rows."+key, "alias list must not be empty")
		}
		if !row.Statement.IsValid() {
			return configErr("rows."+key+".statement", "unknown statement %q", row.Statement)
		}
	}

	// === Exclusions ===
	for cik, ex := range cfg.Exclusions {
		if !cikPattern.MatchString(cik) {
			return configErr("exclusions", "cik must be numeric, got %q", cik)
		}
		for _, l := range ex.All {
			if !labels[l] {
				return configErr("exclusions."+cik+".all", "unknown derived label %q", l)
			}
		}
		for year, ls := range ex.ByYear {
			for _, l := range ls {
				if !labels[l] {
					return configErr(fmt.Sprintf("exclusions.%s.by_year.%d", cik, year), "unknown derived label %q", l)
				}
			}
		}
	}

	// === GAAP ===
	if len(cfg.GAAP) == 0 {
		return configErr("gaap", "alias table must not be empty")
	}
	keys := map[string]string{}
	for code, a := range cfg.GAAP {
		if a.CanonicalKey == "" || a.HumanLabel == "" {
			return configErr("gaap."+code, "canonical_key and human_label are required")
		}
		if other, dup := keys[a.CanonicalKey]; dup {
			return configErr("gaap."+code, "canonical_key %q already used by %s", a.CanonicalKey, other)
		}
		keys[a.CanonicalKey] = code
	}

	return nil
}
