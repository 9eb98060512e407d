package match

import "fmt"

// VerificationStatus is the lifecycle state of a submitted match.
type VerificationStatus int

const (
	StatusPendingVerification VerificationStatus = 0
	StatusVerified            VerificationStatus = 1
	StatusRejected            VerificationStatus = 2
)

func (s VerificationStatus) Valid() bool {
	return s >= StatusPendingVerification && s <= StatusRejected
}

func (s VerificationStatus) String() string {
	switch s {
	case StatusPendingVerification:
		return "pending_verification"
	case StatusVerified:
		return "verified"
	case StatusRejected:
		return "rejected"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Terminal reports whether manual transitions out of s are closed.
func (s VerificationStatus) Terminal() bool {
	return s == StatusVerified || s == StatusRejected
}

// CanTransitionTo only permits Pending -> Verified and Pending -> Rejected.
func (s VerificationStatus) CanTransitionTo(next VerificationStatus) bool {
	if !next.Valid() || s == next {
		return false
	}
	return s == StatusPendingVerification && next.Terminal()
}

// VerificationSource is the class of actor that verified a match.
type VerificationSource int

const (
	SourceMatchVerifier VerificationSource = 0
	SourceAdmin         VerificationSource = 1
	SourceSystem        VerificationSource = 2
)

func (s VerificationSource) String() string {
	switch s {
	case SourceMatchVerifier:
		return "match_verifier"
	case SourceAdmin:
		return "admin"
	case SourceSystem:
		return "system"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}
