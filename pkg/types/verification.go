package types

type OutcomeKind string

const (
	OutcomeAccepted    OutcomeKind = "accepted"
	OutcomeMismatch    OutcomeKind = "mismatch"
	OutcomeNotEligible OutcomeKind = "not-eligible"
)

// Outcome is the classification of a verification reply. RawText is only
// set for accepted outcomes.
type Outcome struct {
	Kind    OutcomeKind `json:"outcome"`
	RawText string      `json:"rawText,omitempty"`
}

type Extracted struct {
	Description string `json:"description"`
	Location    string `json:"location"`
}

type Identity struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	AccessToken string `json:"accessToken,omitempty"`
	ExpiresIn   int    `json:"expiresIn,omitempty"`
}
