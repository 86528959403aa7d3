package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// Claims contient l'identité transmise par le fournisseur d'authentification
type Claims struct {
	UserID string
	Name   string
	Email  string
}

func GenerateJWT(claims Claims, secret string, ttl time.Duration) (string, error) {
	mapClaims := jwt.MapClaims{
		"user_id": claims.UserID,
		"name":    claims.Name,
		"email":   claims.Email,
		"exp":     time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	return token.SignedString([]byte(secret))
}

func DecodeJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signature method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	userID, _ := mapClaims["user_id"].(string)
	if userID == "" {
		return nil, fmt.Errorf("token has no user_id")
	}
	name, _ := mapClaims["name"].(string)
	email, _ := mapClaims["email"].(string)
	return &Claims{UserID: userID, Name: name, Email: email}, nil
}
