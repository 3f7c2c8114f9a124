package auth

import "errors"

// Each flow step has its own error category so the pairing UI can translate
// and display failures. Every category carries the original cause and a
// stable translation key; keys are part of the external contract and must not
// change between releases.

// Translator converts a translation key into a user-facing string. The tags
// map carries substitution values for the message template.
type Translator interface {
	Translate(key string, tags map[string]string) string
}

// keyedError is implemented by all flow error categories.
type keyedError interface {
	error
	TranslationKey() string
}

// UserMessage resolves a flow error to a user-facing string via tr, finding
// the flow category anywhere in the wrap chain. Errors without a translation
// key fall back to their Error() text.
func UserMessage(err error, tr Translator) string {
	if err == nil {
		return ""
	}
	var ke keyedError
	if !errors.As(err, &ke) || tr == nil {
		return err.Error()
	}
	return tr.Translate(ke.TranslationKey(), map[string]string{"reason": err.Error()})
}

func describe(msg, detail string, cause error) string {
	s := msg
	if detail != "" {
		s += ": " + detail
	}
	if cause != nil {
		s += ": " + cause.Error()
	}
	return s
}

// AuthorizationURLError reports that the identity-provider entry URL could not
// be constructed or obtained.
type AuthorizationURLError struct {
	Detail string
	Cause  error
}

func (e *AuthorizationURLError) Error() string {
	return describe("authorization url", e.Detail, e.Cause)
}
func (e *AuthorizationURLError) Unwrap() error          { return e.Cause }
func (e *AuthorizationURLError) TranslationKey() string { return "auth.authorization-url" }

// IdentityProviderError reports a network or redirect failure while reaching
// the login page.
type IdentityProviderError struct {
	Detail string
	Cause  error
}

func (e *IdentityProviderError) Error() string {
	return describe("identity provider", e.Detail, e.Cause)
}
func (e *IdentityProviderError) Unwrap() error          { return e.Cause }
func (e *IdentityProviderError) TranslationKey() string { return "auth.identity-provider" }

// EmailSubmissionError reports that the login form was missing or the email
// POST failed.
type EmailSubmissionError struct {
	Detail string
	Cause  error
}

func (e *EmailSubmissionError) Error() string {
	return describe("email submission", e.Detail, e.Cause)
}
func (e *EmailSubmissionError) Unwrap() error          { return e.Cause }
func (e *EmailSubmissionError) TranslationKey() string { return "auth.email-submission" }

// PasswordFormParseError reports that the template model or CSRF token could
// not be recovered from the script-embedded page state.
type PasswordFormParseError struct {
	Detail string
	Cause  error
}

func (e *PasswordFormParseError) Error() string {
	return describe("password form parse", e.Detail, e.Cause)
}
func (e *PasswordFormParseError) Unwrap() error          { return e.Cause }
func (e *PasswordFormParseError) TranslationKey() string { return "auth.password-form" }

// PasswordSubmissionError reports that the password POST failed, the redirect
// bound was exceeded, or the terminal redirect carried no code.
type PasswordSubmissionError struct {
	Detail string
	Cause  error
}

func (e *PasswordSubmissionError) Error() string {
	return describe("password submission", e.Detail, e.Cause)
}
func (e *PasswordSubmissionError) Unwrap() error          { return e.Cause }
func (e *PasswordSubmissionError) TranslationKey() string { return "auth.password-submission" }

// TokenExchangeError reports that the code-for-token exchange failed or
// returned incomplete data.
type TokenExchangeError struct {
	Detail string
	Cause  error
}

func (e *TokenExchangeError) Error() string {
	return describe("token exchange", e.Detail, e.Cause)
}
func (e *TokenExchangeError) Unwrap() error          { return e.Cause }
func (e *TokenExchangeError) TranslationKey() string { return "auth.token-exchange" }
