package typesys

import (
	"fmt"

	"github.com/mududb/mududb/internal/kernel/errs"
)

// ErrLengthError reports that a decoded length field was inconsistent with
// the remaining buffer.
func ErrLengthError(context string) error {
	return errs.New(errs.TupleErr, "length error: "+context)
}

// ErrTypeConvert reports a textual/JSON/msgpack conversion failure.
func ErrTypeConvert(msg string) error {
	return errs.New(errs.TypeBaseErr, msg)
}

// ErrLowBufSpace reports that SendTo was given fewer than n bytes of space.
func ErrLowBufSpace(n int) error {
	return errs.New(errs.InsufficientBufferSpace, fmt.Sprintf("need %d bytes", n))
}
