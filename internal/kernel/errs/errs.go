// Package errs defines MuduDB's error taxonomy: the EC code enum transported
// on the wire (§6/§7) and the typed Go errors that carry it.
//
// The ordinal assignment mirrors the original Rust `EC` enum one-for-one so a
// wire-compatible client decodes the same numeric code MuduDB encodes.
package errs

import "fmt"

// EC is the wire error code, always encoded as a u32 (§6).
type EC uint32

const (
	Ok EC = 0

	codeStart EC = 10000

	InternalErr EC = codeStart + iota - 1
	DecodeErr
	EncodeErr
	TupleErr
	CompareErr
	TypeBaseErr
	NoneErr
	NotImplemented
	ParseErr
	NoSuchElement
	TypeErr
	IOErr
	ExistingSuchElement
	FunctionNotImplemented
	IndexOutOfRange
	InsufficientBufferSpace
	MutexError
	DBInternalError
	TxErr
	NetErr
	SyncErr
	FatalError
	ThreadErr
	OtherSourceErr
	StorageErr

	codeEnd
)

var messages = map[EC]string{
	Ok:                      "OK",
	InternalErr:             "internal error",
	DecodeErr:               "decode error",
	EncodeErr:               "encode error",
	TupleErr:                "tuple error",
	CompareErr:              "compare error",
	TypeBaseErr:             "convert error",
	NoneErr:                 "none error",
	NotImplemented:          "not implemented",
	ParseErr:                "parse error",
	NoSuchElement:           "no such element",
	TypeErr:                 "type error",
	IOErr:                   "IO error",
	ExistingSuchElement:     "existing such element",
	FunctionNotImplemented:  "function not implemented for this type",
	IndexOutOfRange:         "index out of range",
	InsufficientBufferSpace: "insufficient buffer space",
	MutexError:              "mutex error",
	DBInternalError:         "DB internal error",
	TxErr:                   "transaction error",
	NetErr:                  "net error",
	SyncErr:                 "synchronization error",
	FatalError:              "fatal error",
	ThreadErr:               "thread error",
	OtherSourceErr:          "other source error",
	StorageErr:              "storage error",
}

// Message returns the human-readable text for a known code, or "" if ec falls
// outside the declared range.
func (ec EC) Message() string {
	return messages[ec]
}

// Valid reports whether ec is Ok or inside the declared [codeStart, codeEnd)
// range. Decoders must reject codes outside this range (§6).
func (ec EC) Valid() bool {
	return ec == Ok || (ec > codeStart && ec < codeEnd)
}

// Error implements the error interface so EC can be used as a bare error
// value where no extra context is needed.
func (ec EC) Error() string {
	if m := ec.Message(); m != "" {
		return m
	}
	return fmt.Sprintf("EC(%d)", uint32(ec))
}

// KernelError is the typed error carried through MuduDB internals, modeled on
// the teacher's ConstraintError: a small struct with structured fields,
// implementing error, and wrapping an optional cause.
type KernelError struct {
	Code    EC
	Context string // e.g. table/column/component name
	Reason  string
	Cause   error
}

func (e *KernelError) Error() string {
	msg := e.Code.Message()
	if e.Context != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Context)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Reason)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *KernelError) Unwrap() error { return e.Cause }

// New builds a KernelError for code with a free-form reason.
func New(code EC, reason string) *KernelError {
	return &KernelError{Code: code, Reason: reason}
}

// Wrap builds a KernelError for code wrapping an underlying cause.
func Wrap(code EC, context string, cause error) *KernelError {
	return &KernelError{Code: code, Context: context, Cause: cause}
}

// CodeOf extracts the EC carried by err, defaulting to InternalErr for
// errors that did not originate in this package (§7: unknown causes surface
// as internal errors on the wire).
func CodeOf(err error) EC {
	if err == nil {
		return Ok
	}
	var ke *KernelError
	if as(err, &ke) {
		return ke.Code
	}
	if ec, ok := err.(EC); ok {
		return ec
	}
	return InternalErr
}

// as is a tiny local errors.As to avoid importing "errors" just for this.
func as(err error, target **KernelError) bool {
	for err != nil {
		if ke, ok := err.(*KernelError); ok {
			*target = ke
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// ErrorEnvelope is the wire form of an error (§6): code, message, and an
// optional nested source envelope.
type ErrorEnvelope struct {
	Code    EC             `json:"code"`
	Message string         `json:"message"`
	Source  *ErrorEnvelope `json:"source,omitempty"`
}

// ToEnvelope converts a Go error into its wire ErrorEnvelope, walking Cause
// chains for KernelErrors.
func ToEnvelope(err error) *ErrorEnvelope {
	if err == nil {
		return nil
	}
	ke, ok := err.(*KernelError)
	if !ok {
		return &ErrorEnvelope{Code: InternalErr, Message: err.Error()}
	}
	env := &ErrorEnvelope{Code: ke.Code, Message: ke.Error()}
	if ke.Cause != nil {
		env.Source = ToEnvelope(ke.Cause)
	}
	return env
}
