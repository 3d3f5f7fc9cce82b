// Package alias maps reported XBRL tags and labels to canonical metric identities.
package alias

import (
	"strings"
	"unicode"

	"github.com/wonny/finrag-metrics/internal/metricsconfig"
)

// Resolution is the canonical identity of a GAAP code
type Resolution struct {
	Code         string
	CanonicalKey string
	HumanLabel   string
	Unit         string
}

// Resolver looks up codes in the GAAP alias table
// ⭐ SSOT: tag → canonical_key 변환은 여기서만
type Resolver struct {
	byCode  map[string]metricsconfig.GAAPAlias
	byAlias map[string]string // normalized alias text → code
}

// New builds a resolver over the configured GAAP table
func New(table map[string]metricsconfig.GAAPAlias) *Resolver {
	r := &Resolver{
		byCode:  make(map[string]metricsconfig.GAAPAlias, len(table)),
		byAlias: map[string]string{},
	}
	for code, a := range table {
		r.byCode[code] = a
		r.byAlias[normalizeText(a.HumanLabel)] = code
		for _, s := range a.Aliases {
			if _, taken := r.byAlias[normalizeText(s)]; !taken {
				r.byAlias[normalizeText(s)] = code
			}
		}
	}
	return r
}

// StripNamespace returns the part after "prefix:"; empty input yields ("", false)
func StripNamespace(tag string) (string, bool) {
	if tag == "" {
		return "", false
	}
	if i := strings.Index(tag, ":"); i >= 0 {
		return tag[i+1:], true
	}
	return tag, true
}

// Resolve looks up a tag (namespaced or bare) by exact code
func (r *Resolver) Resolve(tag string) (Resolution, bool) {
	code, ok := StripNamespace(tag)
	if !ok {
		return Resolution{}, false
	}
	a, ok := r.byCode[code]
	if !ok {
		return Resolution{}, false
	}
	return Resolution{Code: code, CanonicalKey: a.CanonicalKey, HumanLabel: a.HumanLabel, Unit: a.Unit}, true
}

// ResolveAlias looks up free text (a human label or accepted alias), trimmed and case-folded
func (r *Resolver) ResolveAlias(text string) (Resolution, bool) {
	code, ok := r.byAlias[normalizeText(text)]
	if !ok {
		return Resolution{}, false
	}
	return r.Resolve(code)
}

// Label returns the human label of tag, or the CamelCase fallback when unknown
func (r *Resolver) Label(tag string) string {
	if res, ok := r.Resolve(tag); ok {
		return res.HumanLabel
	}
	code, ok := StripNamespace(tag)
	if !ok {
		return ""
	}
	return HumanizeFallback(code)
}

// Key returns the canonical key of tag; unknown tags never get one
func (r *Resolver) Key(tag string) (string, bool) {
	res, ok := r.Resolve(tag)
	if !ok {
		return "", false
	}
	return res.CanonicalKey, true
}

// HumanizeFallback splits CamelCase into words: "NetIncomeLoss" → "Net Income Loss"
func HumanizeFallback(code string) string {
	var b strings.Builder
	for i, r := range code {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
