package controllers

import (
	"errors"
	"strconv"
	"time"

	"pregador/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carregadas no x-auth-token.
type Claims struct {
	UserID    int64  `json:"userId"`
	CompanyID int64  `json:"companyId"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

func jwtSecret() []byte {
	secret := deps.Config.Security.JwtSecret
	if secret == "" {
		secret = "CHANGE_ME"
	}
	return []byte(secret)
}

func tokenTTL() time.Duration {
	h := deps.Config.Security.TokenTTLHours
	if h <= 0 {
		h = 24
	}
	return time.Duration(h) * time.Hour
}

// IssueToken assina um HS256 para o usuário.
func IssueToken(user models.User) (string, error) {
	now := deps.Now()
	claims := Claims{
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		Role:      user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL())),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret())
}

func ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return jwtSecret(), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(deps.Now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
