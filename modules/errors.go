package modules

import (
	stderrors "errors"

	"github.com/NebulousLabs/errors"
)

// Kind classifies a ledger-surfaced error so the HTTP adapter can pick the
// right status code and the caller can branch without string-matching
// messages.
type Kind int

const (
	KindNone Kind = iota
	KindBadRequest
	KindInvalidSignature
	KindAddressMismatch
	KindInsufficientBalance
	KindReplayedBlockIndex
	KindAlreadyMined
	KindNoPendingTransactions
	KindInvalidMempoolTransaction
	KindMaxSupplyReached
	KindStorageUnavailable
	KindStoragePermissionDenied
	KindStorageTimeout
	KindCancelled
	KindNotReady
)

// String names the Kind for logging and for the HTTP "reason" field.
func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "BadRequest"
	case KindInvalidSignature:
		return "InvalidSignature"
	case KindAddressMismatch:
		return "AddressMismatch"
	case KindInsufficientBalance:
		return "InsufficientBalance"
	case KindReplayedBlockIndex:
		return "ReplayedBlockIndex"
	case KindAlreadyMined:
		return "AlreadyMined"
	case KindNoPendingTransactions:
		return "NoPendingTransactions"
	case KindInvalidMempoolTransaction:
		return "InvalidMempoolTransaction"
	case KindMaxSupplyReached:
		return "MaxSupplyReached"
	case KindStorageUnavailable:
		return "StorageUnavailable"
	case KindStoragePermissionDenied:
		return "StoragePermissionDenied"
	case KindStorageTimeout:
		return "StorageTimeout"
	case KindCancelled:
		return "Cancelled"
	case KindNotReady:
		return "NotReady"
	default:
		return "Unknown"
	}
}

// HTTPStatus maps a Kind to the HTTP status code the adapter should return,
// per the propagation policy.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotReady:
		return 503
	case KindStorageUnavailable, KindStoragePermissionDenied, KindStorageTimeout:
		return 500
	case KindNone:
		return 200
	default:
		return 400
	}
}

// LedgerError pairs a Kind with an underlying error built the way the
// teacher's consensus package builds its own: errors.Extend(errors.New(reason),
// cause), so Error() renders cause-before-reason the same way
// modules/consensus/difficulty.go's chained Extend calls do. Cause is kept
// separately so Unwrap reaches the original error directly rather than the
// Extend-composed one, which has no Unwrap of its own.
type LedgerError struct {
	Kind   Kind
	Reason string
	Cause  error
	err    error
}

func (e *LedgerError) Error() string {
	return e.Kind.String() + ": " + e.err.Error()
}

func (e *LedgerError) Unwrap() error { return e.Cause }

// NewError builds a LedgerError of the given kind with reason text.
func NewError(kind Kind, reason string) *LedgerError {
	return &LedgerError{Kind: kind, Reason: reason, err: errors.New(reason)}
}

// WrapError builds a LedgerError of the given kind, extending an underlying
// cause (typically a storage-backend error) with reason text.
func WrapError(kind Kind, reason string, cause error) *LedgerError {
	return &LedgerError{Kind: kind, Reason: reason, Cause: cause, err: errors.Extend(errors.New(reason), cause)}
}

// KindOf extracts the Kind from err if it is (or wraps) a *LedgerError,
// returning KindNone otherwise.
func KindOf(err error) Kind {
	var le *LedgerError
	if stderrors.As(err, &le) {
		return le.Kind
	}
	return KindNone
}

// Sentinel errors for conditions checked across packages without needing
// the full Kind/reason machinery.
var (
	ErrStorageExhausted = errors.New("all storage backends exhausted")
	ErrGenesisMissing   = errors.New("genesis block missing from chain")
)
