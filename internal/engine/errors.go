package engine

import (
	"fmt"

	"github.com/roach88/weavebridge/internal/ir"
)

// storeError wraps a store client failure as STORE_CALL_FAILURE.
// Errors that already carry a code pass through unchanged.
func storeError(op, class string, err error) error {
	if err == nil || ir.CodeOf(err) != "" {
		return err
	}
	return &ir.Error{
		Code:      ir.ErrCodeStoreCallFailure,
		Message:   fmt.Sprintf("%s failed", op),
		Construct: class,
		Err:       err,
	}
}

// connectError wraps a Connector failure as CONFIGURATION_ERROR.
func connectError(err error) error {
	if ir.CodeOf(err) != "" {
		return err
	}
	return ir.WrapError(ir.ErrCodeConfiguration, err, "connect to store")
}

// panicError converts a recovered fan-out task panic into an error.
func panicError(index int, v any) error {
	return ir.NewError(ir.ErrCodeStoreCallFailure, "", "foreach entry %d panicked: %v", index, v)
}
