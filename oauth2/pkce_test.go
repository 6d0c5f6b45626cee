package oauth2_test

import (
	"testing"

	"github.com/jrsteele09/go-oauth2-core/oauth2"
	"github.com/stretchr/testify/require"
)

// Verifier and challenge pair from RFC 7636 appendix B.
const (
	rfcVerifier  = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	rfcChallenge = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
)

func TestChallengeS256_RFCVector(t *testing.T) {
	require.Equal(t, rfcChallenge, oauth2.ChallengeS256(rfcVerifier))
}

func TestVerifyCodeChallenge_S256(t *testing.T) {
	require.True(t, oauth2.VerifyCodeChallenge(rfcChallenge, oauth2.CodeMethodTypeS256, rfcVerifier))
	require.False(t, oauth2.VerifyCodeChallenge(rfcChallenge, oauth2.CodeMethodTypeS256, "wrong-verifier"))
}

func TestVerifyCodeChallenge_Plain(t *testing.T) {
	require.True(t, oauth2.VerifyCodeChallenge("secret-verifier", oauth2.CodeMethodTypePlain, "secret-verifier"))
	require.False(t, oauth2.VerifyCodeChallenge("secret-verifier", oauth2.CodeMethodTypePlain, "other"))
}

// A grant that never stored a challenge accepts any verifier, including none.
func TestVerifyCodeChallenge_NoStoredChallenge(t *testing.T) {
	require.True(t, oauth2.VerifyCodeChallenge("", oauth2.CodeMethodTypeS256, rfcVerifier))
	require.True(t, oauth2.VerifyCodeChallenge("", oauth2.CodeMethodTypePlain, ""))
}

// A stored challenge with a missing verifier always fails.
func TestVerifyCodeChallenge_MissingVerifier(t *testing.T) {
	require.False(t, oauth2.VerifyCodeChallenge(rfcChallenge, oauth2.CodeMethodTypeS256, ""))
	require.False(t, oauth2.VerifyCodeChallenge("secret-verifier", oauth2.CodeMethodTypePlain, ""))
}

func TestCoerceCodeMethod(t *testing.T) {
	require.Equal(t, oauth2.CodeMethodTypePlain, oauth2.CoerceCodeMethod(""))
	require.Equal(t, oauth2.CodeMethodTypeS256, oauth2.CoerceCodeMethod("S256"))
	require.Equal(t, oauth2.CodeMethodTypePlain, oauth2.CoerceCodeMethod("plain"))
}
