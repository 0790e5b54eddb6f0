package party

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "insurechain/pkg/domain-errors"
)

// Claims are the JWT claims carried by party access tokens.
type Claims struct {
	PartyID   string `json:"party_id"`
	PartyName string `json:"party_name"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and validates party access tokens (HS256).
type TokenService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewTokenService(signingKey string, issuer string, ttl time.Duration) *TokenService {
	return &TokenService{signingKey: []byte(signingKey), issuer: issuer, ttl: ttl}
}

func (s *TokenService) Generate(p *Party) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		PartyID:   p.ID.String(),
		PartyName: p.Name,
		Role:      string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// Validate parses a token and reconstructs the Actor it identifies.
func (s *TokenService) Validate(tokenString string) (*Actor, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	partyID, err := uuid.Parse(claims.PartyID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid party id in token")
	}
	role := Role(claims.Role)
	if !role.Valid() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown role in token")
	}
	return &Actor{ID: partyID, Name: claims.PartyName, Role: role}, nil
}
