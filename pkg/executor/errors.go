package executor

import (
	"net/http"

	"github.com/Abraxas-365/workgate/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("EXECUTOR")

var (
	CodeMissingInput    = ErrRegistry.Register("MISSING_INPUT", errx.TypeValidation, http.StatusBadRequest, "Required input key is missing")
	CodeProviderFailure = ErrRegistry.Register("PROVIDER_FAILURE", errx.TypeExternal, http.StatusBadGateway, "Model provider call failed")
	CodeEmptyCompletion = ErrRegistry.Register("EMPTY_COMPLETION", errx.TypeExternal, http.StatusBadGateway, "Model returned an empty completion")
)

func ErrMissingInput() *errx.Error    { return ErrRegistry.New(CodeMissingInput) }
func ErrProviderFailure() *errx.Error { return ErrRegistry.New(CodeProviderFailure) }
func ErrEmptyCompletion() *errx.Error { return ErrRegistry.New(CodeEmptyCompletion) }
