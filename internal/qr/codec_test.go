package qr

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateValidateRoundTrip(t *testing.T) {
	c := New("test-secret", 10)
	exp := time.Now().Add(20 * time.Minute).Unix()

	token, err := c.Generate("attendee-42", exp)
	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(token, "#")))

	subject, gotExp, err := c.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "attendee-42", subject)
	assert.Equal(t, exp, gotExp)
}

func TestGenerateRejectsSeparatorInSubject(t *testing.T) {
	c := New("test-secret", 10)
	_, err := c.Generate("bad#subject", 12345)
	assert.ErrorIs(t, err, ErrBadSubject)
}

func TestValidateDetectsTamperedSignature(t *testing.T) {
	c := New("test-secret", 10)
	token, err := c.Generate("attendee-42", 1900000000)
	require.NoError(t, err)

	// Flip one hex character of the signature segment.
	flip := byte('0')
	if token[0] == '0' {
		flip = '1'
	}
	tampered := string(flip) + token[1:]

	_, _, err = c.Validate(tampered)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestValidateDetectsTamperedSubject(t *testing.T) {
	c := New("test-secret", 10)
	token, err := c.Generate("attendee-42", 1900000000)
	require.NoError(t, err)

	tampered := strings.Replace(token, "attendee-42", "attendee-43", 1)
	_, _, err = c.Validate(tampered)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestValidateMalformedTokens(t *testing.T) {
	c := New("test-secret", 10)
	for _, token := range []string{
		"",
		"onlyonepart",
		"two#parts",
		"a#b#c#d",
		"sig#notanumber#subject",
	} {
		_, _, err := c.Validate(token)
		assert.ErrorIs(t, err, ErrMalformedToken, "token %q", token)
	}
}

// An expired credential still decodes; enforcing the expiry is the
// caller's job, and the merch desk relies on that split.
func TestValidateDoesNotEnforceExpiry(t *testing.T) {
	c := New("test-secret", 10)
	exp := time.Now().Add(-time.Second).Unix()

	token, err := c.Generate("attendee-42", exp)
	require.NoError(t, err)

	subject, gotExp, err := c.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "attendee-42", subject)
	assert.Equal(t, exp, gotExp)
}

func TestDifferentSecretsDoNotValidate(t *testing.T) {
	a := New("secret-a", 10)
	b := New("secret-b", 10)

	token, err := a.Generate("attendee-42", 1900000000)
	require.NoError(t, err)

	_, _, err = b.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDifferentRoundsDoNotValidate(t *testing.T) {
	a := New("test-secret", 10)
	b := New("test-secret", 11)

	token, err := a.Generate("attendee-42", 1900000000)
	require.NoError(t, err)

	_, _, err = b.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestZeroRoundsFallsBackToDefault(t *testing.T) {
	explicit := New("test-secret", DefaultRounds)
	fallback := New("test-secret", 0)

	token, err := fallback.Generate("attendee-42", 1900000000)
	require.NoError(t, err)

	subject, _, err := explicit.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "attendee-42", subject)
}
