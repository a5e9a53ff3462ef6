package auth

import (
	"crypto"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fieldstream/ingest-gateway/internal/config"
)

// ErrUnauthenticated is returned for any token that cannot be verified:
// missing, malformed, expired, or signed by an untrusted key. Callers must
// not forward the wrapped detail to clients.
var ErrUnauthenticated = errors.New("token not authenticated")

const keyFetchTimeout = 10 * time.Second

// Claims are the token claims the gateway cares about.
type Claims struct {
	Scope []string `json:"scope"`
	jwt.RegisteredClaims
}

// Verifier checks bearer token signatures and claims. It is immutable after
// construction and safe for concurrent use.
type Verifier struct {
	hmacKey   []byte
	publicKey crypto.PublicKey
	parser    *jwt.Parser
}

// NewVerifier constructs a verifier from configuration. Construction may
// perform I/O: reading a key file or fetching the configured key URL.
func NewVerifier(cfg config.AuthConfig) (*Verifier, error) {
	var opts []jwt.ParserOption
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	v := &Verifier{parser: jwt.NewParser(opts...)}

	switch {
	case cfg.Secret != "":
		v.hmacKey = []byte(cfg.Secret)
	case cfg.PublicKeyFile != "":
		pemBytes, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading public key file: %w", err)
		}
		if v.publicKey, err = parsePublicKey(pemBytes); err != nil {
			return nil, err
		}
	case cfg.PublicKeyURL != "":
		pemBytes, err := fetchKey(cfg.PublicKeyURL)
		if err != nil {
			return nil, fmt.Errorf("fetching public key from %s: %w", cfg.PublicKeyURL, err)
		}
		if v.publicKey, err = parsePublicKey(pemBytes); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("no token verification key configured")
	}

	return v, nil
}

// Verify validates the token string and translates its claims into a
// Principal. All verification failures map to ErrUnauthenticated.
func (v *Verifier) Verify(tokenString string) (*Principal, error) {
	token, err := v.parser.ParseWithClaims(tokenString, &Claims{}, v.keyFor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrUnauthenticated
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}

	return &Principal{
		Token:   tokenString,
		Subject: usernameFrom(claims.Subject),
		Scopes:  claims.Scope,
	}, nil
}

func (v *Verifier) keyFor(token *jwt.Token) (interface{}, error) {
	if v.hmacKey != nil {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return v.hmacKey, nil
	}
	switch token.Method.(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
		return v.publicKey, nil
	default:
		return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
	}
}

func parsePublicKey(pemBytes []byte) (crypto.PublicKey, error) {
	if key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes); err == nil {
		return key, nil
	}
	if key, err := jwt.ParseECPublicKeyFromPEM(pemBytes); err == nil {
		return key, nil
	}
	return nil, errors.New("public key is not a valid RSA or ECDSA PEM block")
}

func fetchKey(url string) ([]byte, error) {
	client := &http.Client{Timeout: keyFetchTimeout}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("key endpoint returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
