package domain

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// ErrCodeItemLoginRequired is the aggregator code telling us the user
// must re-authenticate with their bank.
const ErrCodeItemLoginRequired = "ITEM_LOGIN_REQUIRED"

// ErrMissingAccessToken is returned when a bank has no aggregator credential.
var ErrMissingAccessToken = errors.New("bank has no aggregator access token")

// AggregatorError is an error reported by the aggregator API itself
// (as opposed to a transport or decoding failure).
type AggregatorError struct {
	Type           string
	Code           string
	Message        string
	DisplayMessage string
	RequestID      string
	StatusCode     int
}

func (e *AggregatorError) Error() string {
	return fmt.Sprintf("aggregator error %s (%s): %s", e.Code, e.Type, e.Message)
}

// FailureKind tags a classified fetch failure.
type FailureKind int

const (
	// FailureOther covers network errors and anything unexpected.
	FailureOther FailureKind = iota
	// FailureDomain is an error carrying an aggregator error code.
	FailureDomain
)

func (k FailureKind) String() string {
	switch k {
	case FailureDomain:
		return "domain"
	default:
		return "other"
	}
}

// FetchError describes why a bank's accounts could not be fetched.
// It is response-only and never persisted.
type FetchError struct {
	Kind        FailureKind
	Code        string
	Message     string
	PublicToken *string // Only set for domain errors that require re-login
}

// ClassifyFetchError converts an accounts-fetch error into a FetchError.
func ClassifyFetchError(err error) FetchError {
	var aggErr *AggregatorError
	if errors.As(err, &aggErr) {
		return FetchError{
			Kind:    FailureDomain,
			Code:    aggErr.Code,
			Message: aggErr.Message,
		}
	}
	return FetchError{Kind: FailureOther, Message: err.Error()}
}

// RequiresRelogin reports whether the client must go through Link again.
func (f FetchError) RequiresRelogin() bool {
	return f.Kind == FailureDomain && f.Code == ErrCodeItemLoginRequired
}

// MarshalJSON writes {code, message, publicToken} for domain errors
// (publicToken is null unless re-login is required) and {message} otherwise.
func (f FetchError) MarshalJSON() ([]byte, error) {
	if f.Kind == FailureDomain {
		return json.Marshal(struct {
			Code        string  `json:"code"`
			Message     string  `json:"message"`
			PublicToken *string `json:"publicToken"`
		}{f.Code, f.Message, f.PublicToken})
	}
	return json.Marshal(struct {
		Message string `json:"message"`
	}{f.Message})
}
