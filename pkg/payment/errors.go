package payment

import (
	"net/http"

	"github.com/Abraxas-365/workgate/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("PAYMENT")

var (
	CodeInvalidEvent   = ErrRegistry.Register("INVALID_EVENT", errx.TypeValidation, http.StatusBadRequest, "Payment event is malformed")
	CodeUnmatched      = ErrRegistry.Register("UNMATCHED", errx.TypeNotFound, http.StatusNotFound, "Payment event matches no job")
	CodeGatewayFailure = ErrRegistry.Register("GATEWAY_FAILURE", errx.TypeExternal, http.StatusBadGateway, "Payment processor request failed")
	CodeStoreFailure   = ErrRegistry.Register("STORE_FAILURE", errx.TypeInternal, http.StatusInternalServerError, "Unmatched event store operation failed")
)

func ErrInvalidEvent() *errx.Error   { return ErrRegistry.New(CodeInvalidEvent) }
func ErrUnmatched() *errx.Error      { return ErrRegistry.New(CodeUnmatched) }
func ErrGatewayFailure() *errx.Error { return ErrRegistry.New(CodeGatewayFailure) }
func ErrStoreFailure() *errx.Error   { return ErrRegistry.New(CodeStoreFailure) }
