// Package qr implements the self-verifying check-in credential encoded
// into attendee QR codes.  A credential binds a subject (attendee ID)
// to an expiry timestamp without any server-side storage: validity is
// defined purely by recomputing the signature over the same inputs.
package qr

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
)

// Wire format: "<hex-signature>#<epoch-seconds>#<subject>".  The '#'
// separator is reserved, so subjects must never contain it.
const separator = "#"

// DefaultRounds is the default number of extra hash rounds applied on
// top of the HMAC.  The iteration is a work-factor/obfuscation step,
// not a cryptographic strengthening guarantee; the HMAC alone provides
// unforgeability.  Outstanding tokens stop validating if it changes.
const DefaultRounds = 10

var (
	// ErrBadSubject is returned by Generate when the subject contains
	// the '#' separator and therefore cannot be framed on the wire.
	ErrBadSubject = errors.New("subject must not contain '#'")

	// ErrMalformedToken is returned when a token does not split into
	// exactly signature, expiry and subject parts, or the expiry is not
	// an integer.
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidSignature is returned when the recomputed signature does
	// not match the one supplied in the token.
	ErrInvalidSignature = errors.New("invalid token signature")
)

// Codec generates and validates check-in credentials.  Secret and
// Rounds are injected at construction so tests can vary them; they must
// match the values used when outstanding tokens were issued or those
// tokens stop validating.
type Codec struct {
	Secret string // server-held signing key
	Rounds int    // extra hash rounds; <= 0 falls back to DefaultRounds
}

// New returns a Codec with the given secret and round count.
func New(secret string, rounds int) *Codec {
	if rounds <= 0 {
		rounds = DefaultRounds
	}
	return &Codec{Secret: secret, Rounds: rounds}
}

// sign computes the signature component for a subject/expiry pair:
// hex HMAC-SHA256 of "subject#expiry", then Rounds iterations of
// hex(SHA256(secret + "#" + signed)).
func (c *Codec) sign(subject string, expiry int64) string {
	seed := subject + separator + strconv.FormatInt(expiry, 10)
	mac := hmac.New(sha256.New, []byte(c.Secret))
	mac.Write([]byte(seed))
	signed := hex.EncodeToString(mac.Sum(nil))
	rounds := c.Rounds
	if rounds <= 0 {
		rounds = DefaultRounds
	}
	for i := 0; i < rounds; i++ {
		sum := sha256.Sum256([]byte(c.Secret + separator + signed))
		signed = hex.EncodeToString(sum[:])
	}
	return signed
}

// Generate produces the wire-format credential
// "<signature>#<expiry>#<subject>".  It rejects subjects containing
// '#' since they would be unparseable on the way back in.
func (c *Codec) Generate(subject string, expiry int64) (string, error) {
	if strings.Contains(subject, separator) {
		return "", ErrBadSubject
	}
	sig := c.sign(subject, expiry)
	return sig + separator + strconv.FormatInt(expiry, 10) + separator + subject, nil
}

// Validate parses a credential and verifies its signature, returning
// the subject and expiry it was issued for.
//
// Validate deliberately does NOT compare the expiry against the current
// time: a cryptographically valid but expired token still decodes
// successfully.  Expiry enforcement belongs to the caller (the route
// layer compares expiry to now and rejects with its own error), which
// lets the merch-scan path decode tokens it will judge by different
// rules.  Misreading this split is a common source of bugs; do not
// "fix" it by rejecting expired tokens here.
func (c *Codec) Validate(token string) (subject string, expiry int64, err error) {
	parts := strings.Split(token, separator)
	if len(parts) != 3 {
		return "", 0, ErrMalformedToken
	}
	sig := parts[0]
	expiry, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, ErrMalformedToken
	}
	subject = parts[2]
	want := c.sign(subject, expiry)
	// Constant-time compare; both sides are hex of fixed length so the
	// length check inside ConstantTimeCompare does not leak anything
	// useful.
	if subtle.ConstantTimeCompare([]byte(sig), []byte(want)) != 1 {
		return "", 0, ErrInvalidSignature
	}
	return subject, expiry, nil
}
