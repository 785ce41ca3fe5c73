package credit

// Reason classifies every ledger entry. The set is closed; new reasons are
// a schema change, not a free-form string.
type Reason string

const (
	ReasonSignupBonus    Reason = "signup_bonus"
	ReasonLessonAnalysis Reason = "lesson_analysis"
	ReasonPurchase       Reason = "purchase"
	ReasonRefund         Reason = "refund"
	ReasonGift           Reason = "gift"
	ReasonPromo          Reason = "promo"
)

func (r Reason) String() string {
	return string(r)
}

func (r Reason) IsValid() bool {
	switch r {
	case ReasonSignupBonus, ReasonLessonAnalysis, ReasonPurchase, ReasonRefund, ReasonGift, ReasonPromo:
		return true
	default:
		return false
	}
}

// IsDebit reports whether entries with this reason carry negative amounts.
func (r Reason) IsDebit() bool {
	return r == ReasonLessonAnalysis
}
