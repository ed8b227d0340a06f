package kernel

// ============================================================================
// Context Keys - Claves para context.Context
// ============================================================================

type ContextKey string

const (
	// RequestIDKey es la clave para almacenar el ID de la petición
	RequestIDKey ContextKey = "request_id"

	// CallerContextKey es la clave para almacenar el CallerContext en context.Context
	CallerContextKey ContextKey = "caller_context"
)

// CallerContext identifica quién invoca una operación protegida (por ahora,
// solo el servicio de pagos autenticado por JWT en el webhook).
type CallerContext struct {
	Subject string   `json:"subject"`
	Issuer  string   `json:"issuer"`
	Scopes  []string `json:"scopes"`
}

// HasScope verifica si el contexto tiene un scope específico
func (cc *CallerContext) HasScope(scope string) bool {
	for _, s := range cc.Scopes {
		if s == scope || s == "*" {
			return true
		}
	}
	return false
}
