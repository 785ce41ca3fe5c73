package notification

type Type string

const (
	TypeAnalysisComplete Type = "analysis_complete"
	TypeAnalysisFailed   Type = "analysis_failed"
	TypeCreditsPurchased Type = "credits_purchased"
	TypeLowBalance       Type = "low_balance"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case TypeAnalysisComplete, TypeAnalysisFailed, TypeCreditsPurchased, TypeLowBalance:
		return true
	default:
		return false
	}
}

// Preference holds the per-type channel flags for one user. Users without a
// stored row get both channels enabled.
type Preference struct {
	InApp bool
	Email bool
}

func DefaultPreference() Preference {
	return Preference{InApp: true, Email: true}
}
