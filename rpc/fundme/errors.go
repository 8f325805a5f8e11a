package fundme

import (
	"errors"
	"strings"

	"github.com/nspcc-dev/fundme-contract/contracts/fundme/fundmeconst"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
)

// ErrorKind enumerates reasons FundMe rejects an operation with.
type ErrorKind int

const (
	// UnknownError is any fault FundMe does not produce itself.
	UnknownError ErrorKind = iota
	// NotEnoughFunds is a contribution worth less than the minimum in USD.
	NotEnoughFunds
	// NotOwner is an owner-only method invoked by someone else.
	NotOwner
	// FunderIndexOutOfRange is a funder list read past its end.
	FunderIndexOutOfRange
	// GASOnly is a payment made with a token other than GAS.
	GASOnly
	// InvalidPrice is a non-positive price feed answer.
	InvalidPrice
	// PriceFeedNotConfigured is an operation requiring price feed on a
	// contract without one.
	PriceFeedNotConfigured
)

var kindMessages = []struct {
	kind ErrorKind
	msg  string
}{
	{NotEnoughFunds, fundmeconst.ErrNotEnoughFunds},
	{NotOwner, fundmeconst.ErrNotOwner},
	{FunderIndexOutOfRange, fundmeconst.ErrFunderIndexOutOfRange},
	{GASOnly, fundmeconst.ErrGASOnly},
	{InvalidPrice, fundmeconst.ErrInvalidPrice},
	{PriceFeedNotConfigured, fundmeconst.ErrPriceFeedNotConfigured},
}

// Message returns the reason string the contract panics with for this kind.
// It's empty for UnknownError.
func (k ErrorKind) Message() string {
	for i := range kindMessages {
		if kindMessages[i].kind == k {
			return kindMessages[i].msg
		}
	}

	return ""
}

func (k ErrorKind) String() string {
	switch k {
	case NotEnoughFunds:
		return "NotEnoughFunds"
	case NotOwner:
		return "NotOwner"
	case FunderIndexOutOfRange:
		return "FunderIndexOutOfRange"
	case GASOnly:
		return "GASOnly"
	case InvalidPrice:
		return "InvalidPrice"
	case PriceFeedNotConfigured:
		return "PriceFeedNotConfigured"
	default:
		return "Unknown"
	}
}

// FaultError describes FundMe invocation ended in FAULT state.
type FaultError struct {
	Kind ErrorKind
	// Exception is the raw VM exception message.
	Exception string
}

// Sentinel errors to be used with errors.Is.
var (
	ErrNotEnoughFunds         error = &FaultError{Kind: NotEnoughFunds}
	ErrNotOwner               error = &FaultError{Kind: NotOwner}
	ErrFunderIndexOutOfRange  error = &FaultError{Kind: FunderIndexOutOfRange}
	ErrGASOnly                error = &FaultError{Kind: GASOnly}
	ErrInvalidPrice           error = &FaultError{Kind: InvalidPrice}
	ErrPriceFeedNotConfigured error = &FaultError{Kind: PriceFeedNotConfigured}
)

func (e *FaultError) Error() string {
	if e.Exception == "" {
		return "fundme: " + e.Kind.Message()
	}

	return "fundme: " + e.Exception
}

// Is implements errors.Is interface: fault errors match when their kinds
// are equal.
func (e *FaultError) Is(target error) bool {
	var t *FaultError
	if !errors.As(target, &t) {
		return false
	}

	return t.Kind == e.Kind
}

// Classify returns kind of the given VM exception message.
func Classify(exception string) ErrorKind {
	for i := range kindMessages {
		if strings.Contains(exception, kindMessages[i].msg) {
			return kindMessages[i].kind
		}
	}

	return UnknownError
}

// FromError converts the error returned by invocation into *FaultError if it
// carries a known FundMe rejection reason. Other errors are returned as is.
func FromError(err error) error {
	if err == nil {
		return nil
	}

	var fe *FaultError
	if errors.As(err, &fe) {
		return err
	}

	k := Classify(err.Error())
	if k == UnknownError {
		return err
	}

	return &FaultError{Kind: k, Exception: err.Error()}
}

// FromAppExecResult returns nil if transaction was executed successfully and
// *FaultError otherwise.
func FromAppExecResult(res *state.AppExecResult) error {
	if res == nil {
		return errors.New("nil execution result")
	}

	if res.VMState == vmstate.Halt {
		return nil
	}

	return &FaultError{
		Kind:      Classify(res.FaultException),
		Exception: res.FaultException,
	}
}
