package vapid

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"
	"math/big"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidKeyFormat is returned when the configured VAPID key material is
// not a well-formed P-256 key pair.
var ErrInvalidKeyFormat = fmt.Errorf("vapid: invalid key format")

const (
	// publicKeyLength is the size of an uncompressed P-256 point.
	publicKeyLength = 65
	// uncompressedPointPrefix is the required leading byte of the point.
	uncompressedPointPrefix = 0x04
	// privateKeyLength is the size of a P-256 scalar.
	privateKeyLength = 32

	// assertionTTL bounds the exp claim. The push protocol allows up to 24
	// hours; push services reject anything beyond that.
	assertionTTL = 12 * time.Hour
)

// Signer mints VAPID authorization assertions for outbound push requests.
// It is immutable after construction and safe for concurrent use.
type Signer struct {
	key       *ecdsa.PrivateKey
	publicKey string
	subject   string
}

// NewSigner parses the base64url-encoded key pair into a signing key.
//
// The public key must be an uncompressed P-256 point: exactly 65 bytes with
// a 0x04 prefix followed by the 32-byte X and Y coordinates. The private key
// must be the matching 32-byte scalar. Any other shape fails with
// ErrInvalidKeyFormat; a malformed key would fail every single dispatch, so
// callers should treat this as fatal at startup.
func NewSigner(publicKey, privateKey, subject string) (*Signer, error) {
	pub, err := DecodeKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: public key is not valid base64url", ErrInvalidKeyFormat)
	}
	if len(pub) != publicKeyLength || pub[0] != uncompressedPointPrefix {
		return nil, fmt.Errorf("%w: public key must be a %d-byte uncompressed point", ErrInvalidKeyFormat, publicKeyLength)
	}

	priv, err := DecodeKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: private key is not valid base64url", ErrInvalidKeyFormat)
	}
	if len(priv) != privateKeyLength {
		return nil, fmt.Errorf("%w: private key must be a %d-byte scalar", ErrInvalidKeyFormat, privateKeyLength)
	}

	curve := elliptic.P256()
	x := new(big.Int).SetBytes(pub[1:33])
	y := new(big.Int).SetBytes(pub[33:])
	if !curve.IsOnCurve(x, y) {
		return nil, fmt.Errorf("%w: public key point is not on the curve", ErrInvalidKeyFormat)
	}

	d := new(big.Int).SetBytes(priv)
	if d.Sign() == 0 || d.Cmp(curve.Params().N) >= 0 {
		return nil, fmt.Errorf("%w: private scalar out of range", ErrInvalidKeyFormat)
	}

	// The push service validates the JWT against the public key the browser
	// saw at subscribe time, so a mismatched pair is as fatal as a malformed
	// one.
	dx, dy := curve.ScalarBaseMult(priv)
	if dx.Cmp(x) != 0 || dy.Cmp(y) != 0 {
		return nil, fmt.Errorf("%w: private key does not match public key", ErrInvalidKeyFormat)
	}

	return &Signer{
		key: &ecdsa.PrivateKey{
			PublicKey: ecdsa.PublicKey{Curve: curve, X: x, Y: y},
			D:         d,
		},
		publicKey: EncodeKey(pub),
		subject:   subject,
	}, nil
}

// PublicKey returns the canonical base64url encoding of the public key, as
// it must appear in push request headers.
func (s *Signer) PublicKey() string {
	return s.publicKey
}

// Assertion mints a fresh JWT scoped to the push service behind the given
// subscription endpoint. The aud claim is origin-scoped, so one assertion is
// never valid across different providers.
func (s *Signer) Assertion(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid subscription endpoint %q: %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid subscription endpoint %q: missing scheme or host", endpoint)
	}

	claims := jwt.MapClaims{
		"aud": u.Scheme + "://" + u.Host,
		"exp": time.Now().Add(assertionTTL).Unix(),
		"sub": s.subject,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign assertion: %w", err)
	}
	return signed, nil
}
