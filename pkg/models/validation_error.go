package models

// Severity distinguishes blocking issues from advisory ones.
type Severity string

const (
	SeverityError   Severity = "error"   // Blocks save/activate
	SeverityWarning Severity = "warning" // Surfaced, never blocks
)

// ValidationError is a single finding produced by the flow validators.
type ValidationError struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []ValidationError) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}

	return false
}

// Errors returns only the blocking issues.
func Errors(issues []ValidationError) []ValidationError {
	blocking := make([]ValidationError, 0, len(issues))

	for _, issue := range issues {
		if issue.Severity == SeverityError {
			blocking = append(blocking, issue)
		}
	}

	return blocking
}
