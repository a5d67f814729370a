package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the result of verifying a bearer credential. The verifier
// is the only component that knows how credentials are issued; everything
// downstream sees just the stable user id and email.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// Verifier checks a bearer credential and returns the identity it
// asserts. Implementations must treat invalid, expired and malformed
// credentials uniformly as errors.
type Verifier interface {
	Verify(tokenString string) (*Identity, error)
}

type Claims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HS256-signed tokens issued by the identity
// provider.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return &Identity{UID: claims.UID, Email: claims.Email}, nil
}

// GenerateToken issues a token for the given identity. Production tokens
// come from the external provider; this exists for local setups and tests.
func GenerateToken(secret string, identity Identity, expiration time.Duration) (string, error) {
	claims := &Claims{
		UID:   identity.UID,
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

type contextKey string

const identityContextKey contextKey = "identity"

// Auth rejects requests without a valid bearer credential and stores the
// verified identity in the request context.
func Auth(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				writeUnauthorized(w, "authorization token is missing or invalid")
				return
			}

			identity, err := verifier.Verify(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					writeUnauthorized(w, "token has expired, please log in again")
					return
				}
				writeUnauthorized(w, "unauthorized access: invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func IdentityFromContext(ctx context.Context) *Identity {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok {
		return nil
	}
	return identity
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"` + message + `"}`))
}
