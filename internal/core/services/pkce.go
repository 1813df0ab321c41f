package services

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/oauth2"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
)

const (
	// PKCE code verifier length in random bytes; encodes to 86 characters.
	codeVerifierLength = 64
	// State nonce length in random bytes.
	stateLength = 32
)

// randomSource is swapped in tests to simulate entropy failure.
var randomSource io.Reader = rand.Reader

// PKCE holds a verifier and its S256 challenge.
type PKCE struct {
	Verifier  string
	Challenge string
}

// GeneratePKCE creates a fresh verifier/challenge pair.
func GeneratePKCE() (PKCE, error) {
	verifier, err := generateCodeVerifier()
	if err != nil {
		return PKCE{}, err
	}
	return PKCE{Verifier: verifier, Challenge: generateCodeChallenge(verifier)}, nil
}

// generateCodeVerifier creates a cryptographically random code verifier for PKCE.
func generateCodeVerifier() (string, error) {
	return randomToken(codeVerifierLength)
}

// generateCodeChallenge creates a S256 code challenge from the verifier.
func generateCodeChallenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

// generateState creates a random state parameter for CSRF protection.
func generateState() (string, error) {
	return randomToken(stateLength)
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(randomSource, b); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPKCEGeneration, err)
	}
	// Use base64url encoding without padding
	return base64.RawURLEncoding.EncodeToString(b), nil
}
