package models

import "github.com/golang-jwt/jwt/v5"

// Claims are the JWT fields accepted on chat routes. The subject, when set,
// identifies the caller in logs.
type Claims struct {
	jwt.RegisteredClaims
}
