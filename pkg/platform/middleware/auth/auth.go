package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "consulthub/pkg/domain"
	"consulthub/pkg/requestcontext"
)

// TokenVerifier validates a bearer token issued by the external identity
// provider and returns the verified subject. Credentials are never seen here.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// Claims are the identity-provider claims the core relies on.
type Claims struct {
	Subject   id.SubjectID
	SessionID id.SessionID
}

// idpClaims is the wire shape of the identity token.
type idpClaims struct {
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

var (
	ErrMissingSubject = errors.New("token has no subject")
	ErrMissingSession = errors.New("token has no session id")
)

// VerifierConfig configures JWT verification. Exactly one of HMACSecret or
// RSAPublicKeyPEM should be set.
type VerifierConfig struct {
	Issuer          string
	Audience        string
	HMACSecret      string
	RSAPublicKeyPEM string
	Leeway          time.Duration
}

// JWTVerifier verifies HS256 or RS256 identity tokens.
type JWTVerifier struct {
	issuer   string
	audience string
	hmacKey  []byte
	rsaKey   *rsa.PublicKey
	leeway   time.Duration
}

// NewJWTVerifier builds a verifier from config.
func NewJWTVerifier(cfg VerifierConfig) (*JWTVerifier, error) {
	v := &JWTVerifier{
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		leeway:   cfg.Leeway,
	}
	switch {
	case cfg.RSAPublicKeyPEM != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.RSAPublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse identity provider public key: %w", err)
		}
		v.rsaKey = key
	case cfg.HMACSecret != "":
		v.hmacKey = []byte(cfg.HMACSecret)
	default:
		return nil, errors.New("identity token verification key not configured")
	}
	return v, nil
}

// Verify checks signature, algorithm, expiry, issuer and audience.
func (v *JWTVerifier) Verify(token string) (*Claims, error) {
	claims := new(idpClaims)

	opts := []jwt.ParserOption{jwt.WithExpirationRequired(), jwt.WithLeeway(v.leeway)}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	if v.rsaKey != nil {
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	} else {
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	}

	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		if v.rsaKey != nil {
			return v.rsaKey, nil
		}
		return v.hmacKey, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("verify identity token: %w", err)
	}

	subject, err := id.ParseSubjectID(claims.Subject)
	if err != nil {
		return nil, ErrMissingSubject
	}
	if strings.TrimSpace(claims.SessionID) == "" {
		return nil, ErrMissingSession
	}
	return &Claims{Subject: subject, SessionID: id.SessionID(claims.SessionID)}, nil
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireSubject returns middleware that verifies the bearer token and stores
// the verified subject and session id in the request context.
func RequireSubject(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithSubject(ctx, claims.Subject, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
