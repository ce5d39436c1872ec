package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	OwnerID uuid.UUID
	JTI     string
}

// AccessTokenClaims represents the typed JWT issued by the upstream identity
// service. The cart API only consumes the owner identifier.
type AccessTokenClaims struct {
	OwnerID uuid.UUID `json:"owner_id"`
	jwt.RegisteredClaims
}
