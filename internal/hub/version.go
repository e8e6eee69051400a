package hub

import (
	"math"
	"strconv"
	"strings"
)

// Version is a dotted version string split into numeric components.
// Components that are missing or not numbers are NaN.
type Version struct {
	Parts []float64
	Raw   string
}

// ParseVersion splits a dotted version. It never fails: unparseable
// components become NaN and compare as described on SatisfiesVersion.
func ParseVersion(s string) Version {
	s = strings.TrimSpace(s)
	tokens := strings.Split(s, ".")
	parts := make([]float64, len(tokens))
	for i, tok := range tokens {
		parts[i] = parseComponent(tok)
	}
	return Version{Parts: parts, Raw: s}
}

func parseComponent(tok string) float64 {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return 0
	}
	n, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return math.NaN()
	}
	return n
}

// component returns the i-th part or NaN past the end.
func (v Version) component(i int) float64 {
	if i < len(v.Parts) {
		return v.Parts[i]
	}
	return math.NaN()
}

// Satisfies reports whether v meets the minimum version required.
func (v Version) Satisfies(required Version) bool {
	for i := range required.Parts {
		cur, req := v.component(i), required.component(i)
		curNaN, reqNaN := math.IsNaN(cur), math.IsNaN(req)
		if cur > req || (!curNaN && reqNaN) {
			return true
		}
		if req > cur || (curNaN && !reqNaN) {
			return false
		}
	}
	return true
}

// SatisfiesVersion compares dotted versions component-wise as numbers. The
// first decisive component wins. A missing or non-numeric component on the
// current side fails against a numeric required component; the reverse
// passes. Running out of required components without a decision passes, so
// extra precision on the current side is accepted.
func SatisfiesVersion(current, required string) bool {
	if strings.TrimSpace(required) == "" {
		return true
	}
	if strings.TrimSpace(current) == "" {
		return false
	}
	return ParseVersion(current).Satisfies(ParseVersion(required))
}
