package token

import (
	"errors"
	"fmt"

	"github.com/kataras/jwt"
)

var ErrInvalid = errors.New("invalid session token")

func Decode(secret []byte, raw []byte) (*Claims, error) {
	if len(secret) == 0 {
		return nil, errors.New("session secret is empty")
	}
	if len(raw) == 0 {
		return nil, ErrInvalid
	}
	verifiedToken, err := jwt.Verify(jwt.HS512, secret, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	claims := &Claims{}
	if err = verifiedToken.Claims(claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return claims, nil
}
