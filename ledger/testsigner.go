package ledger

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/veraison/go-cose"
)

// TestGenerateECKey creates a P-256 key for tests.
func TestGenerateECKey(t *testing.T) *ecdsa.PrivateKey {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return privateKey
}

// TestCoseSigner returns a matched ES256 signer and verifier.
func TestCoseSigner(t *testing.T) (cose.Signer, cose.Verifier) {
	key := TestGenerateECKey(t)
	signer, err := cose.NewSigner(cose.AlgorithmES256, key)
	require.NoError(t, err)
	verifier, err := cose.NewVerifier(cose.AlgorithmES256, key.Public())
	require.NoError(t, err)
	return signer, verifier
}
