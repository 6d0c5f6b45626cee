package oauth2

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// ChallengeS256 derives the S256 code challenge for a verifier:
// BASE64URL-nopad(SHA256(verifier)) per RFC 7636 section 4.2.
func ChallengeS256(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// VerifyCodeChallenge checks a presented PKCE code verifier against the
// challenge stored with an authorization code.
//
// An empty stored challenge means PKCE was not used for this code and the
// check passes unconditionally. A stored challenge with no presented
// verifier fails. Otherwise the verifier is transformed per the stored
// method and compared in constant time.
func VerifyCodeChallenge(challenge string, method CodeMethodType, verifier string) bool {
	if challenge == "" {
		return true
	}
	if verifier == "" {
		return false
	}
	if method == CodeMethodTypeS256 {
		verifier = ChallengeS256(verifier)
	}
	return subtle.ConstantTimeCompare([]byte(verifier), []byte(challenge)) == 1
}
