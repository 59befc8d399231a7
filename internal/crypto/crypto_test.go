package crypto_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axolotld/internal/crypto"
	"axolotld/internal/domain"
)

func TestDH_Agrees(t *testing.T) {
	s := crypto.NewSuite(nil)
	a, err := s.GenerateDH()
	require.NoError(t, err)
	b, err := s.GenerateDH()
	require.NoError(t, err)

	ab, err := s.DH(a.Private, b.Public)
	require.NoError(t, err)
	ba, err := s.DH(b.Private, a.Public)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
	assert.Len(t, ab, 32)

	pub, err := crypto.PublicFromPrivate(a.Private)
	require.NoError(t, err)
	assert.Equal(t, a.Public, pub)
}

func TestDH_RejectsLowOrderPoint(t *testing.T) {
	s := crypto.NewSuite(nil)
	a, err := s.GenerateDH()
	require.NoError(t, err)

	_, err = s.DH(a.Private, domain.X25519Public{})
	assert.Error(t, err)
}

func TestGenerateDH_Clamped(t *testing.T) {
	s := crypto.NewSuite(bytes.NewReader(bytes.Repeat([]byte{0xff}, 32)))
	kp, err := s.GenerateDH()
	require.NoError(t, err)
	assert.Equal(t, byte(0xf8), kp.Private[0])
	assert.Equal(t, byte(0x7f), kp.Private[31])
}

func TestSealOpen(t *testing.T) {
	s := crypto.NewSuite(nil)
	key := bytes.Repeat([]byte{7}, 32)

	sealed, err := s.Seal(key, []byte("hello"))
	require.NoError(t, err)
	require.Len(t, sealed, crypto.NonceSize+5+16)

	pt, err := s.Open(key, sealed)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), pt)

	again, err := s.Seal(key, []byte("hello"))
	require.NoError(t, err)
	assert.NotEqual(t, sealed[:crypto.NonceSize], again[:crypto.NonceSize])
}

func TestOpen_FailsClosed(t *testing.T) {
	s := crypto.NewSuite(nil)
	key := bytes.Repeat([]byte{7}, 32)
	sealed, err := s.Seal(key, []byte("hello"))
	require.NoError(t, err)

	cases := map[string]struct {
		key    []byte
		sealed []byte
	}{
		"wrong key": {bytes.Repeat([]byte{8}, 32), sealed},
		"tampered":  {key, append(append([]byte(nil), sealed[:len(sealed)-1]...), sealed[len(sealed)-1]^1)},
		"short":     {key, sealed[:crypto.NonceSize]},
		"empty":     {key, nil},
		"bad key":   {[]byte{1}, sealed},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Open(tc.key, tc.sealed)
			assert.ErrorIs(t, err, crypto.ErrAuthentication)
		})
	}
}

func TestHMAC_MatchesStdlib(t *testing.T) {
	s := crypto.NewSuite(nil)
	m := hmac.New(sha256.New, []byte("key"))
	m.Write([]byte("data"))
	assert.Equal(t, m.Sum(nil), s.HMAC([]byte("key"), []byte("data")))
}

func TestHashAndHKDF_Sizes(t *testing.T) {
	s := crypto.NewSuite(nil)
	assert.Len(t, s.Hash([]byte("x")), 64)

	a, err := s.HKDF([]byte("ikm"), "one", 96)
	require.NoError(t, err)
	b, err := s.HKDF([]byte("ikm"), "two", 96)
	require.NoError(t, err)
	assert.Len(t, a, 96)
	assert.NotEqual(t, a, b)
}

func TestWipe(t *testing.T) {
	a, b := []byte{1, 2}, []byte{3}
	crypto.Wipe(a, b)
	assert.Equal(t, []byte{0, 0}, a)
	assert.Equal(t, []byte{0}, b)

	k := domain.X25519Private{1}
	crypto.WipePrivate(&k)
	assert.Equal(t, domain.X25519Private{}, k)
	crypto.WipePrivate(nil)
}

func TestFingerprint(t *testing.T) {
	fp := crypto.Fingerprint(domain.X25519Public{1})
	assert.Len(t, fp.String(), 20)
	assert.NotEqual(t, fp, crypto.Fingerprint(domain.X25519Public{2}))
}
