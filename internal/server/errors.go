package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roach88/weavebridge/internal/ir"
)

// StatusFor maps an error to its HTTP status by error code.
//
//	client-side translation and configuration errors → 400
//	NOT_IMPLEMENTED                                  → 501
//	STORE_CALL_FAILURE                               → 502
//	uncoded                                          → 500
func StatusFor(err error) int {
	switch ir.CodeOf(err) {
	case ir.ErrCodeUnsupportedExpression,
		ir.ErrCodeUnsupportedOperator,
		ir.ErrCodeUnsupportedUnaryOperator,
		ir.ErrCodeUnknownScalarType,
		ir.ErrCodeInvalidTarget,
		ir.ErrCodeInvalidRequest,
		ir.ErrCodeConfiguration:
		return http.StatusBadRequest
	case ir.ErrCodeNotImplemented:
		return http.StatusNotImplemented
	case ir.ErrCodeStoreCallFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON error document.
func errorBody(err error) gin.H {
	body := gin.H{"message": err.Error()}

	var e *ir.Error
	if !errors.As(err, &e) {
		body["type"] = "uncaught-error"
		return body
	}
	body["type"] = string(e.Code)
	if e.Construct != "" {
		body["details"] = gin.H{"construct": e.Construct}
	}
	return body
}
