package execution

import (
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

const jwtSecretLength = 32

// ParseJWTSecret decodes a hex encoded engine API secret, with or without the 0x prefix.
func ParseJWTSecret(secret string) ([]byte, error) {
	secret = strings.TrimSpace(secret)
	if !strings.HasPrefix(secret, "0x") {
		secret = "0x" + secret
	}
	b, err := hexutil.Decode(secret)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidJWTSecret, err.Error())
	}
	if len(b) != jwtSecretLength {
		return nil, errors.Wrapf(ErrInvalidJWTSecret, "expected %d bytes, got %d", jwtSecretLength, len(b))
	}
	return b, nil
}

// jwtTransport signs a fresh HS256 token carrying an iat claim for every request, as
// the engine API rejects tokens whose iat drifts from its clock.
type jwtTransport struct {
	underlying http.RoundTripper
	secret     []byte
	now        func() time.Time
}

func newJWTTransport(secret []byte) *jwtTransport {
	return &jwtTransport{
		underlying: http.DefaultTransport,
		secret:     secret,
		now:        time.Now,
	}
}

func (t *jwtTransport) token() (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		IssuedAt: jwt.NewNumericDate(t.now()),
	})
	return token.SignedString(t.secret)
}

// RoundTrip implements http.RoundTripper.
func (t *jwtTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	signed, err := t.token()
	if err != nil {
		return nil, errors.Wrap(err, "could not sign engine api token")
	}
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+signed)
	return t.underlying.RoundTrip(req)
}
