package gateway

import (
	"fmt"

	"github.com/go-faster/errors"
)

// AuthErrorCode categorizes authentication failures.
type AuthErrorCode string

const (
	// AuthInvalidInput indicates malformed or rejected input (bad email,
	// weak password, missing fields).
	AuthInvalidInput AuthErrorCode = "invalid_input"

	// AuthDuplicateAccount indicates the email is already registered.
	AuthDuplicateAccount AuthErrorCode = "duplicate_account"

	// AuthInvalidCredentials indicates a wrong email/password pair or an
	// unusable refresh token.
	AuthInvalidCredentials AuthErrorCode = "invalid_credentials"

	// AuthTransport indicates the request never got a response.
	AuthTransport AuthErrorCode = "transport"

	// AuthServer indicates a server-side failure or an unreadable response.
	AuthServer AuthErrorCode = "server"
)

// AuthError is returned by every AuthGateway operation.
//
// Error() returns Message only, so that displaying the error shows the
// backend's text verbatim. Code keeps the categories apart for callers
// that need to tell them apart.
type AuthError struct {
	Code    AuthErrorCode
	Message string
	Status  int   // HTTP status, 0 for transport failures
	Err     error // underlying error, if any
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// DataErrorCode categorizes catalog data failures.
type DataErrorCode string

const (
	// DataNotFound indicates no row matched the requested id.
	DataNotFound DataErrorCode = "not_found"

	// DataTransport indicates the request never got a response.
	DataTransport DataErrorCode = "transport"

	// DataMalformed indicates a response that could not be decoded,
	// including unparseable prices.
	DataMalformed DataErrorCode = "malformed"

	// DataInvalid indicates a draft rejected before it was sent.
	DataInvalid DataErrorCode = "invalid"

	// DataUnauthorized indicates the backend refused the credentials.
	DataUnauthorized DataErrorCode = "unauthorized"

	// DataRejected indicates the backend refused the request (4xx).
	DataRejected DataErrorCode = "rejected"

	// DataServer indicates a server-side failure (5xx).
	DataServer DataErrorCode = "server"
)

// DataError is returned by every CatalogGateway operation.
type DataError struct {
	Code    DataErrorCode
	Message string
	Status  int
	Err     error
}

func (e *DataError) Error() string {
	return e.Message
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func newDataError(code DataErrorCode, status int, err error, format string, args ...any) *DataError {
	return &DataError{Code: code, Message: fmt.Sprintf(format, args...), Status: status, Err: err}
}

// IsNotFound returns true if err is a DataError with DataNotFound.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var de *DataError
	return errors.As(err, &de) && de.Code == DataNotFound
}

// IsMalformed returns true if err is a DataError with DataMalformed.
func IsMalformed(err error) bool {
	var de *DataError
	return errors.As(err, &de) && de.Code == DataMalformed
}

// IsInvalidCredentials returns true if err is an AuthError with
// AuthInvalidCredentials.
func IsInvalidCredentials(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Code == AuthInvalidCredentials
}

// IsDuplicateAccount returns true if err is an AuthError with
// AuthDuplicateAccount.
func IsDuplicateAccount(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Code == AuthDuplicateAccount
}

// IsTransport returns true for transport failures of either family.
func IsTransport(err error) bool {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Code == AuthTransport
	}
	var de *DataError
	return errors.As(err, &de) && de.Code == DataTransport
}

// Message returns the text to show a user for err: the backend's message
// for gateway errors, err.Error() otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Message
	}
	var de *DataError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
