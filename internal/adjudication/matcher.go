package adjudication

import (
	"strings"

	"github.com/clearclaim/go-ace/internal/domain/claim"
	"github.com/clearclaim/go-ace/internal/domain/policy"
)

// Categorizer maps a procedure/diagnosis code pair to a service category.
// Category classification is an upstream concern; the engine treats it as a
// pure function and only requires determinism. An empty return means the
// codes could not be classified.
type Categorizer func(procedureCode, diagnosisCode string) string

// DefaultCategorizer classifies by CPT code range. It covers the common
// ranges only; deployments with a richer code catalog should supply their
// own Categorizer.
func DefaultCategorizer(procedureCode, _ string) string {
	code := strings.TrimSpace(procedureCode)
	if len(code) != 5 {
		return ""
	}
	switch {
	// Inpatient E/M codes sit inside the outpatient range, so the narrower
	// case must be evaluated first.
	case code >= "99221" && code <= "99239":
		return "inpatient"
	case code >= "99202" && code <= "99499":
		return "outpatient"
	case code >= "70010" && code <= "79999":
		return "imaging"
	case code >= "80047" && code <= "89398":
		return "laboratory"
	case code >= "90281" && code <= "96549":
		return "specialist"
	case code >= "10004" && code <= "69990":
		return "surgery"
	default:
		return ""
	}
}

// Match is the result of a coverage lookup for one claim item.
// A nil Coverage with Matched false is the no-coverage sentinel; the rule
// validator turns it into a critical finding.
type Match struct {
	Category string
	Coverage *policy.Coverage
	Matched  bool
}

// Matcher resolves claim items to policy coverage entries.
type Matcher struct {
	categorize Categorizer
}

// NewMatcher creates a matcher. A nil categorizer falls back to
// DefaultCategorizer.
func NewMatcher(categorize Categorizer) *Matcher {
	if categorize == nil {
		categorize = DefaultCategorizer
	}
	return &Matcher{categorize: categorize}
}

// Match finds the coverage for one item. When the category is ambiguous
// the first declared coverage in policy order wins; this is a deterministic
// tie-break, not an error.
func (m *Matcher) Match(item claim.Item, pol *policy.Policy) Match {
	category := m.categorize(item.ProcedureCode, item.DiagnosisCode)
	if category == "" {
		return Match{}
	}
	cov, ok := pol.CoverageFor(category)
	if !ok {
		return Match{Category: category}
	}
	return Match{Category: category, Coverage: cov, Matched: true}
}
