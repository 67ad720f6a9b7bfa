package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Principal identifies the authenticated caller on admin routes.
type Principal struct {
	Subject string
	Role    string
}

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

// Parse validates an HMAC-signed access token and extracts the principal.
func (p *Parser) Parse(tokenString string) (*Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	principal := &Principal{}
	if sub, ok := claims["sub"].(string); ok {
		principal.Subject = sub
	}
	if role, ok := claims["role"].(string); ok {
		principal.Role = role
	}
	if principal.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return principal, nil
}
