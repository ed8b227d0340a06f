package paymentapi

import (
	"fmt"
	"strings"

	"github.com/Abraxas-365/workgate/pkg/errx"
	"github.com/Abraxas-365/workgate/pkg/kernel"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// WebhookAuth validates the bearer token the payment processor signs its
// webhook calls with. Tokens are HS256 over a shared secret; the subject
// identifies the processor instance.
func WebhookAuth(secret string) fiber.Handler {
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return errx.Unauthorized("missing bearer token")
		}

		token, err := jwt.ParseWithClaims(parts[1], &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
			// Verificar el método de firma
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		})
		if err != nil {
			return errx.Unauthorized("invalid webhook token").WithDetail("cause", err.Error())
		}
		if !token.Valid {
			return errx.Unauthorized("invalid webhook token")
		}

		claims, ok := token.Claims.(*jwt.RegisteredClaims)
		if !ok {
			return errx.Unauthorized("invalid webhook token claims")
		}

		c.Locals("caller", &kernel.CallerContext{
			Subject: claims.Subject,
			Issuer:  claims.Issuer,
		})
		return c.Next()
	}
}
