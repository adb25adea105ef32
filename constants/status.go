package constants

// VerdictStatus is the outcome of one invoice/PO comparison.
type VerdictStatus string

// Stable values (these exact strings appear in stored verdicts and reports).
const (
	VerdictMatched     VerdictStatus = "MATCHED"
	VerdictNeedsReview VerdictStatus = "NEEDS REVIEW"
)

// IsValidVerdict reports whether s is one of the whitelisted verdict labels.
func IsValidVerdict(s string) bool {
	return s == string(VerdictMatched) || s == string(VerdictNeedsReview)
}

// RunStatus is the canonical status for rows in verification_runs.
type RunStatus string

const (
	RunMatched    RunStatus = "matched"
	RunMismatched RunStatus = "mismatched"
)
