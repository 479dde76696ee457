package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pmdelrosario/merkado-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a staff JWT.
type AccessTokenPayload struct {
	StaffID uuid.UUID
	Email   string
	Role    enums.StaffRole
}

// AccessTokenClaims represents the typed JWT issued to staff clients.
type AccessTokenClaims struct {
	StaffID uuid.UUID       `json:"staff_id"`
	Email   string          `json:"email"`
	Role    enums.StaffRole `json:"role"`
	jwt.RegisteredClaims
}
