package services

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"pollup/internal/apperr"
	"pollup/internal/models"
)

// IdentityService verifies tokens minted by the identity provider. The
// service never checks credentials itself; it only validates the
// provider's signature and lifts the profile claims out.
type IdentityService struct {
	secret []byte
}

func NewIdentityService(secret string) *IdentityService {
	return &IdentityService{secret: []byte(secret)}
}

// VerifyToken parses a provider-issued token and returns the verified
// identity. Expired or malformed tokens surface as AuthenticationRequired.
func (s *IdentityService) VerifyToken(tokenString string) (*models.Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Wrap(apperr.KindAuthenticationRequired, err, "invalid identity token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperr.AuthenticationRequired("malformed identity token")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, apperr.AuthenticationRequired("identity token missing subject")
	}

	ident := &models.Identity{ExternalID: sub}
	ident.Username, _ = claims["username"].(string)
	ident.Email, _ = claims["email"].(string)
	ident.DisplayName, _ = claims["name"].(string)
	ident.Avatar, _ = claims["picture"].(string)
	return ident, nil
}

// MintToken signs an identity token. Exists for local development and
// tests standing in for the real provider.
func (s *IdentityService) MintToken(ident models.Identity) (string, error) {
	claims := jwt.MapClaims{
		"sub":      ident.ExternalID,
		"username": ident.Username,
		"email":    ident.Email,
		"name":     ident.DisplayName,
		"picture":  ident.Avatar,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
