package token

import (
	"fmt"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"
)

var allowedAlgorithms = []gojose.SignatureAlgorithm{gojose.HS256}

// Codec creates and parses signed, time-limited session tokens bound to a
// user email. Tokens are compact HS256 JWTs carrying subject, issued-at and
// expiry claims.
type Codec struct {
	key []byte
	ttl time.Duration
}

// New constructs a codec signing with the given symmetric key. The TTL is
// deliberately short; sessions are expected to re-login frequently.
func New(key []byte, ttl time.Duration) *Codec {
	return &Codec{key: key, ttl: ttl}
}

// Issue produces a signed token for the subject, valid for the codec TTL.
func (c *Codec) Issue(subject string) (string, error) {
	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.HS256, Key: c.key},
		(&gojose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	// The jti claim keeps tokens unique even when two logins land within
	// the same second; stored-token equality depends on that.
	now := time.Now().UTC()
	claims := gojwt.Claims{
		ID:       uuid.NewString(),
		Subject:  subject,
		IssuedAt: gojwt.NewNumericDate(now),
		Expiry:   gojwt.NewNumericDate(now.Add(c.ttl)),
	}

	signed, err := gojwt.Signed(signer).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize token: %w", err)
	}
	return signed, nil
}

// Validate reports whether the token is well-formed, carries a valid
// signature and has not expired. It never fails with an error; malformed
// input is simply invalid.
func (c *Codec) Validate(raw string) bool {
	claims, err := c.parse(raw)
	if err != nil {
		return false
	}
	if claims.Expiry == nil {
		return false
	}
	return time.Now().UTC().Before(claims.Expiry.Time())
}

// Subject returns the email encoded in the token after verifying the
// signature. Expiry is not checked here; both Validate and Subject share the
// same parse so the two paths cannot diverge, and security-sensitive callers
// must call Validate first.
func (c *Codec) Subject(raw string) (string, error) {
	claims, err := c.parse(raw)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (c *Codec) parse(raw string) (gojwt.Claims, error) {
	parsed, err := gojwt.ParseSigned(raw, allowedAlgorithms)
	if err != nil {
		return gojwt.Claims{}, fmt.Errorf("parse token: %w", err)
	}
	var claims gojwt.Claims
	if err := parsed.Claims(c.key, &claims); err != nil {
		return gojwt.Claims{}, fmt.Errorf("verify token: %w", err)
	}
	return claims, nil
}
