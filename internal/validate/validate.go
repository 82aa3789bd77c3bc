package validate

import (
	"fmt"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// FieldError reports one validation failure against a named input field.
type FieldError struct {
	Field   string
	Message string
}

// FieldValidator checks one field and returns nil when it passes.
type FieldValidator func() *FieldError

// Run executes validators in order and aggregates every failure into one
// report, one message per offending field. First message wins on duplicates.
func Run(validators ...FieldValidator) map[string]string {
	var report map[string]string
	for _, v := range validators {
		fe := v()
		if fe == nil {
			continue
		}
		if report == nil {
			report = make(map[string]string)
		}
		if _, seen := report[fe.Field]; !seen {
			report[fe.Field] = fe.Message
		}
	}
	return report
}

// NonBlank fails when the value is empty or whitespace only.
func NonBlank(field, value string) FieldValidator {
	return func() *FieldError {
		if strings.TrimSpace(value) == "" {
			return &FieldError{Field: field, Message: "must not be blank"}
		}
		return nil
	}
}

// Email fails when the value does not look like an email address.
func Email(field, value string) FieldValidator {
	return func() *FieldError {
		if !emailPattern.MatchString(value) {
			return &FieldError{Field: field, Message: "must be a well-formed email address"}
		}
		return nil
	}
}

// Password applies a policy to the candidate value.
func Password(field, value string, policy *PasswordPolicy) FieldValidator {
	return func() *FieldError {
		if ok, message := policy.Check(value); !ok {
			return &FieldError{Field: field, Message: message}
		}
		return nil
	}
}

// PasswordPolicy checks candidate passwords against a configured pattern and
// produces the configured violation message on mismatch. The policy is pure:
// the same candidate always yields the same outcome.
type PasswordPolicy struct {
	pattern *regexp.Regexp
	message string
}

// NewPasswordPolicy compiles the pattern. The pattern must match the whole
// candidate, so it is anchored here; an all-accepting pattern such as `.*`
// accepts the empty string. The non-blank requirement is a separate
// validator, not implied by the policy.
func NewPasswordPolicy(pattern, message string) (*PasswordPolicy, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("compile password pattern: %w", err)
	}
	if strings.TrimSpace(message) == "" {
		message = "Password does not meet the required format"
	}
	return &PasswordPolicy{pattern: re, message: message}, nil
}

// Check reports whether the candidate satisfies the policy, returning the
// configured message when it does not.
func (p *PasswordPolicy) Check(candidate string) (bool, string) {
	if p.pattern.MatchString(candidate) {
		return true, ""
	}
	return false, p.message
}
