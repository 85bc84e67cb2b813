package testutil

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// fakeSecret signs the tokens issued by the fake API.
var fakeSecret = []byte("pfa-test-secret")

// SignToken issues an HS256 access token for userID that expires after ttl.
// A non-positive ttl yields a token that is already expired.
func SignToken(userID int64, ttl time.Duration) string {
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(fakeSecret)
	if err != nil {
		panic(err)
	}
	return token
}

func parseToken(raw string) (int64, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return fakeSecret, nil
	})
	if err != nil {
		return 0, err
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(sub, 10, 64)
}
