package errx

// Shorthand constructors for the common ad hoc cases.

func Internal(message string) *Error     { return New(message, TypeInternal) }
func Validation(message string) *Error   { return New(message, TypeValidation) }
func NotFound(message string) *Error     { return New(message, TypeNotFound) }
func Unauthorized(message string) *Error { return New(message, TypeAuthorization) }
func Conflict(message string) *Error     { return New(message, TypeConflict) }
func Business(message string) *Error     { return New(message, TypeBusiness) }
func External(message string) *Error     { return New(message, TypeExternal) }
