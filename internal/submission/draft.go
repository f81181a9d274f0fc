package submission

type Step int

const (
	StepCapture Step = iota
	StepDescribe
	StepLocate
	StepReview
	StepSubmitting
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepCapture:
		return "capture"
	case StepDescribe:
		return "describe"
	case StepLocate:
		return "locate"
	case StepReview:
		return "review"
	case StepSubmitting:
		return "submitting"
	case StepDone:
		return "done"
	}
	return "unknown"
}

type VerificationState int

const (
	Unverified VerificationState = iota
	Accepted
	RejectedMismatch
	RejectedNotEligible
)

// Verification is the last verification result for the draft. Description
// and Location are only set when Accepted.
type Verification struct {
	State       VerificationState
	Description string
	Location    string
}

// Draft is a report being composed. It lives until it is submitted or reset.
type Draft struct {
	Image       []byte
	ImageName   string
	MimeType    string
	Description string
	Location    string
	IsPublic    bool

	Step         Step
	Verification Verification
}

func (d Draft) clone() Draft {
	if d.Image != nil {
		d.Image = append([]byte(nil), d.Image...)
	}
	return d
}
