package job

import (
	"net/http"

	"github.com/Abraxas-365/workgate/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("JOB")

var (
	CodeJobNotFound       = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Job not found")
	CodeInvalidInput      = ErrRegistry.Register("INVALID_INPUT", errx.TypeValidation, http.StatusBadRequest, "Invalid job input")
	CodeInvalidTransition = ErrRegistry.Register("INVALID_TRANSITION", errx.TypeConflict, http.StatusConflict, "State transition not allowed")
	CodeAlreadyAttached   = ErrRegistry.Register("ALREADY_ATTACHED", errx.TypeConflict, http.StatusConflict, "Job already has a different payment reference")
	CodeConflictingState  = ErrRegistry.Register("CONFLICTING_STATE", errx.TypeConflict, http.StatusConflict, "Payment state is terminal and conflicts with the event")
	CodeCorruptRecord     = ErrRegistry.Register("CORRUPT_RECORD", errx.TypeInternal, http.StatusInternalServerError, "Job record violates a structural invariant")
)

func ErrJobNotFound() *errx.Error       { return ErrRegistry.New(CodeJobNotFound) }
func ErrInvalidInput() *errx.Error      { return ErrRegistry.New(CodeInvalidInput) }
func ErrInvalidTransition() *errx.Error { return ErrRegistry.New(CodeInvalidTransition) }
func ErrAlreadyAttached() *errx.Error   { return ErrRegistry.New(CodeAlreadyAttached) }
func ErrConflictingState() *errx.Error  { return ErrRegistry.New(CodeConflictingState) }
func ErrCorruptRecord() *errx.Error     { return ErrRegistry.New(CodeCorruptRecord) }

// IsCode reports whether err carries the given registered code. Store and
// service callers use it to branch on the error taxonomy without string
// matching.
func IsCode(err error, code *errx.ErrorCode) bool {
	var e *errx.Error
	if !errx.As(err, &e) {
		return false
	}
	return e.Code == code.Code
}
