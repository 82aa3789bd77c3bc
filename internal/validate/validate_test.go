package validate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JovenGabriel/users-api/internal/validate"
)

func TestPasswordPolicyAllAcceptingPattern(t *testing.T) {
	policy, err := validate.NewPasswordPolicy(".*", "Invalid password format")
	require.NoError(t, err)

	// The policy applies the pattern literally: an all-accepting pattern
	// validates the empty string. Non-blank is a separate validator.
	ok, message := policy.Check("")
	require.True(t, ok)
	require.Empty(t, message)
}

func TestPasswordPolicyMatch(t *testing.T) {
	policy, err := validate.NewPasswordPolicy(`\w+\d+!`, "Invalid password format")
	require.NoError(t, err)

	ok, message := policy.Check("Valid123!")
	require.True(t, ok)
	require.Empty(t, message)
}

func TestPasswordPolicyMismatchUsesConfiguredMessage(t *testing.T) {
	policy, err := validate.NewPasswordPolicy(`\w+\d+!`, "Invalid password format")
	require.NoError(t, err)

	ok, message := policy.Check("InvalidPassword")
	require.False(t, ok)
	require.Equal(t, "Invalid password format", message)
}

func TestPasswordPolicyIsAnchored(t *testing.T) {
	policy, err := validate.NewPasswordPolicy(`\w+\d+!`, "Invalid password format")
	require.NoError(t, err)

	// A partial match inside a longer candidate is not enough.
	ok, _ := policy.Check("   Valid123!   ")
	require.False(t, ok)
}

func TestPasswordPolicyBadPattern(t *testing.T) {
	_, err := validate.NewPasswordPolicy(`(unclosed`, "message")
	require.Error(t, err)
}

func TestRunAggregatesFailures(t *testing.T) {
	policy, err := validate.NewPasswordPolicy(`\w+\d+!`, "Invalid password format")
	require.NoError(t, err)

	report := validate.Run(
		validate.NonBlank("name", "   "),
		validate.NonBlank("email", "not-an-email"),
		validate.Email("email", "not-an-email"),
		validate.NonBlank("password", "weak"),
		validate.Password("password", "weak", policy),
	)

	require.Len(t, report, 3)
	require.Equal(t, "must not be blank", report["name"])
	require.Equal(t, "must be a well-formed email address", report["email"])
	require.Equal(t, "Invalid password format", report["password"])
}

func TestRunFirstMessagePerFieldWins(t *testing.T) {
	report := validate.Run(
		validate.NonBlank("email", ""),
		validate.Email("email", ""),
	)

	require.Len(t, report, 1)
	require.Equal(t, "must not be blank", report["email"])
}

func TestRunReturnsNilWhenClean(t *testing.T) {
	policy, err := validate.NewPasswordPolicy(`\w+\d+!`, "Invalid password format")
	require.NoError(t, err)

	report := validate.Run(
		validate.NonBlank("name", "John Doe"),
		validate.NonBlank("email", "john.doe@example.com"),
		validate.Email("email", "john.doe@example.com"),
		validate.NonBlank("password", "Valid123!"),
		validate.Password("password", "Valid123!", policy),
	)

	require.Nil(t, report)
}
