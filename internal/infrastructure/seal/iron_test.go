package seal

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/bravo68web/testuser/pkg/errors"
)

const password = "some_not_random_password_that_is_also_long_enough"

func TestSealRoundTrip(t *testing.T) {
	s := NewIronSealer(password)

	sealed, err := s.Seal("ghtok_abc")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "ghtok_abc")

	parts := strings.Split(sealed, "*")
	require.Len(t, parts, 8)
	assert.Equal(t, "Fe26.2", parts[0])
	assert.Empty(t, parts[1])
	assert.Len(t, parts[2], 64)
	assert.Empty(t, parts[5])
	assert.Len(t, parts[6], 64)

	plaintext, err := s.Unseal(sealed)
	require.NoError(t, err)
	assert.Equal(t, "ghtok_abc", plaintext)
}

func TestSealIsRandomised(t *testing.T) {
	s := NewIronSealer(password)

	a, err := s.Seal("same")
	require.NoError(t, err)
	b, err := s.Seal("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealDeterministicWithFixedRandom(t *testing.T) {
	zeros := func() Option { return WithRandom(bytes.NewReader(make([]byte, 256))) }

	a, err := NewIronSealer(password, zeros()).Seal("value")
	require.NoError(t, err)
	b, err := NewIronSealer(password, zeros()).Seal("value")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSealRejectsShortPassword(t *testing.T) {
	_, err := NewIronSealer("too-short").Seal("ghtok_abc")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindSealing))
	assert.ErrorIs(t, err, apperrors.ErrPasswordTooShort)
}

func TestSealFailsWhenEntropyRunsOut(t *testing.T) {
	_, err := NewIronSealer(password, WithRandom(bytes.NewReader(nil))).Seal("x")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindSealing))
}

func TestUnsealRejectsTampering(t *testing.T) {
	s := NewIronSealer(password)
	sealed, err := s.Seal("ghtok_abc")
	require.NoError(t, err)

	parts := strings.Split(sealed, "*")
	parts[4] = b64([]byte(strings.Repeat("A", 16)))
	_, err = s.Unseal(strings.Join(parts, "*"))
	assert.True(t, errors.Is(err, ErrBadIntegrity))

	_, err = NewIronSealer(strings.Repeat("x", 40)).Unseal(sealed)
	assert.True(t, errors.Is(err, ErrBadIntegrity))
}

func TestUnsealRejectsMalformed(t *testing.T) {
	s := NewIronSealer(password)

	for _, in := range []string{"", "plaintext", "Fe26.1*a*b*c*d*e*f*g", "Fe26.2*a*b"} {
		_, err := s.Unseal(in)
		assert.True(t, errors.Is(err, ErrMalformed), in)
		assert.True(t, apperrors.IsKind(err, apperrors.KindSealing), in)
	}
}

func TestPKCS7(t *testing.T) {
	padded := pkcs7Pad([]byte("abc"), 16)
	assert.Len(t, padded, 16)

	out, err := pkcs7Unpad(padded, 16)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), out)

	full := pkcs7Pad(bytes.Repeat([]byte("a"), 16), 16)
	assert.Len(t, full, 32)

	_, err = pkcs7Unpad(bytes.Repeat([]byte{0}, 16), 16)
	assert.ErrorIs(t, err, ErrMalformed)
}
