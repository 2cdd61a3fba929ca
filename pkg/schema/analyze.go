package schema

import "fmt"

// Report is the outcome of ValidateSchema. Warnings never affect IsValid.
type Report struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

const (
	MessageMissingType      = "Schema must have a 'type' property"
	MessageRecipientsArray  = "Schema contains 'recipients' array - an Iterator node is required before Send nodes"
	requiredNotInProperties = "Required field '%s' is not defined in properties"
)

// ValidateSchema checks that text is a well-formed schema. It never fails:
// parse errors are reported in the result.
func ValidateSchema(text string) Report {
	report := Report{
		Errors:   []string{},
		Warnings: []string{},
	}

	doc, err := parseDocument(text)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())

		return report
	}

	if declared, _ := doc.declaredType(); declared == "" {
		report.Errors = append(report.Errors, MessageMissingType)
	}

	for _, field := range doc.required {
		if _, ok := doc.properties.get(field); !ok {
			report.Errors = append(report.Errors, fmt.Sprintf(requiredNotInProperties, field))
		}
	}

	if hasRecipientsArray(doc) {
		report.Warnings = append(report.Warnings, MessageRecipientsArray)
	}

	report.IsValid = len(report.Errors) == 0

	return report
}

// HasRecipientsArray reports whether the schema declares a top-level
// recipients array. Unparseable text yields false.
func HasRecipientsArray(text string) bool {
	doc, err := parseDocument(text)
	if err != nil {
		return false
	}

	return hasRecipientsArray(doc)
}

func hasRecipientsArray(doc *document) bool {
	recipients, ok := doc.properties.get(RecipientsProperty)
	if !ok || recipients == nil {
		return false
	}

	declared, _ := recipients.declaredType()

	return Type(declared) == TypeArray
}
