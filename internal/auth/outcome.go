package auth

// Outcome is the result of an operation as the client should see it.
// Outcomes are never errors, infrastructure failures are returned
// separately and always come with OutcomeTransientError.
type Outcome string

const (
	OutcomeVerificationSent  Outcome = "verification_sent"
	OutcomeAlreadyRegistered Outcome = "already_registered"

	OutcomeInvalidToken    Outcome = "invalid_token"
	OutcomeAlreadyVerified Outcome = "already_verified"
	OutcomeExpired         Outcome = "expired"
	OutcomeVerified        Outcome = "verified"

	OutcomeUnknownEmail   Outcome = "unknown_email"
	OutcomeNotVerified    Outcome = "not_verified"
	OutcomeBadCredentials Outcome = "bad_credentials"
	OutcomeLoginSuccess   Outcome = "login_success"

	OutcomeTransientError Outcome = "transient_error"
)

func (o Outcome) String() string {
	return string(o)
}
