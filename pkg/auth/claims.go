package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/sbpremium/gifts-backend/pkg/enums"
)

// AdminTokenClaims is the JWT handed to operators of the bot. The subject is
// the developer's user id.
type AdminTokenClaims struct {
	Role enums.AdminRole `json:"role"`
	jwt.RegisteredClaims
}
