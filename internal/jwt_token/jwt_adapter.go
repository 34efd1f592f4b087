package jwttoken

import (
	authmw "famhelpdesk/pkg/platform/middleware/auth"
)

// JWTServiceAdapter lets the auth middleware validate IdP bearer tokens
// without importing this package. The token subject becomes the user ID.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(raw string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(raw)
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{
		UserID:   claims.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
		Nickname: claims.Nickname,
	}, nil
}
