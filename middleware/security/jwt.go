package security

import (
	"os"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Bhawani9828/slack-clone-sub001/tools/errs"
)

var (
	secretOnce sync.Once
	secret     []byte
)

// SetSecret overrides the signing secret, mainly for tests. Call it
// before the first verification.
func SetSecret(s string) {
	secretOnce.Do(func() {})
	secret = []byte(s)
}

func signingSecret() []byte {
	secretOnce.Do(func() {
		if len(secret) > 0 {
			return
		}
		s := os.Getenv("JWT_SECRET")
		if s == "" {
			s = "dev-secret-change-me"
		}
		secret = []byte(s)
	})
	return secret
}

// VerifyToken checks an HMAC signed token and returns the subject.
func VerifyToken(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errs.New("unexpected signing method")
		}
		return signingSecret(), nil
	})
	if err != nil {
		return "", errs.Wrap(err, "verify token")
	}
	if !parsed.Valid {
		return "", errs.New("invalid token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errs.New("unexpected claims shape")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errs.New("token missing subject")
	}
	return sub, nil
}

// IssueToken mints a token for userID, used by tests and local tools.
func IssueToken(userID string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": userID})
	return t.SignedString(signingSecret())
}
