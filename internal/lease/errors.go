// ABOUTME: Error kinds and typed errors for lease operations
// ABOUTME: The API layer maps kinds to HTTP statuses; the engine never returns transport errors

package lease

import (
	"errors"
	"fmt"
)

// Kind classifies a lease operation failure.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindInvalidTransition  Kind = "invalid_transition"
	KindPreconditionFailed Kind = "precondition_failed"
	KindValidation         Kind = "validation_error"
	KindUpstreamFailure    Kind = "upstream_failure"
)

// Error is a classified lease failure. All validation happens before any
// mutation, so returning an Error always means the lease was not modified.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches any *Error with the same kind, so callers can test against the
// shared instances below with errors.Is.
func (e *Error) Is(target error) bool {
	var te *Error
	if !errors.As(target, &te) {
		return false
	}
	return e.Kind == te.Kind && (te.Message == "" || te.Message == e.Message)
}

// Errf builds an Error with a formatted message.
func Errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the error kind, or empty string for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Shared failure instances. Compare with errors.Is.
var (
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "lease not found"}
	ErrNotParty          = &Error{Kind: KindUnauthorized, Message: "actor is not a party to this lease"}
	ErrAlreadyLocked     = &Error{Kind: KindPreconditionFailed, Message: "lease is locked for signing"}
	ErrAlreadySigned     = &Error{Kind: KindPreconditionFailed, Message: "signature slot already populated"}
	ErrOutOfOrder        = &Error{Kind: KindPreconditionFailed, Message: "landlord must sign before tenant"}
	ErrLeaseLocked       = &Error{Kind: KindPreconditionFailed, Message: "terms are immutable after signing"}
	ErrAmountMismatch    = &Error{Kind: KindValidation, Message: "returned amount does not match deposit minus deductions"}
	ErrDepositNotHeld    = &Error{Kind: KindPreconditionFailed, Message: "deposit is not in held state"}
	ErrTermsIncomplete   = &Error{Kind: KindPreconditionFailed, Message: "start date, end date, rent amount and security deposit are required"}
	ErrOpenChanges       = &Error{Kind: KindPreconditionFailed, Message: "open change requests must be resolved first"}
	ErrNotCancellable    = &Error{Kind: KindPreconditionFailed, Message: "lease can no longer be cancelled"}
	ErrNoRenewalOffer    = &Error{Kind: KindPreconditionFailed, Message: "no renewal offer is outstanding"}
	ErrInspectionMissing = &Error{Kind: KindPreconditionFailed, Message: "inspection has not been scheduled"}
)
