// Package statesign produces and verifies the signed OAuth state envelope
// that binds a provider redirect back to a link session.
package statesign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"

	brokererrors "github.com/admuse/go-link-broker/internal/errors"
	"golang.org/x/crypto/hkdf"
)

// hkdfLabel separates the state-signing key from any other use of the
// configured secret.
const hkdfLabel = "link-broker/state-signing/v1"

// Payload is the verified content carried through the provider redirect.
type Payload struct {
	LinkSessionID string `json:"linkSessionId"`
	Nonce         string `json:"nonce"`
}

// envelope is the externally transmitted state: the raw payload JSON plus
// its signature, base64-encoded as a whole.
type envelope struct {
	Data      string `json:"data"`
	Signature string `json:"signature"`
}

type Signer struct {
	key []byte
}

// New derives a dedicated HMAC key from the configured secret.
func New(secret []byte) (*Signer, error) {
	if len(secret) == 0 {
		return nil, errors.New("state signing secret is required")
	}

	key := make([]byte, sha256.Size)
	kdf := hkdf.New(sha256.New, secret, nil, []byte(hkdfLabel))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, brokererrors.Wrapf(err, "deriving state signing key")
	}
	return &Signer{key: key}, nil
}

// Sign computes an HMAC-SHA256 signature over payload.
func (s *Signer) Sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	return mac.Sum(nil)
}

// Verify recomputes the expected signature and compares it in constant
// time.
func (s *Signer) Verify(payload, signature []byte) bool {
	return hmac.Equal(signature, s.Sign(payload))
}

// Encode builds the signed state parameter for a link session.
func (s *Signer) Encode(p Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", brokererrors.Wrapf(err, "marshalling state payload")
	}

	env := envelope{
		Data:      string(data),
		Signature: base64.StdEncoding.EncodeToString(s.Sign(data)),
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return "", brokererrors.Wrapf(err, "marshalling state envelope")
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode validates a state parameter and returns its payload. Malformed
// base64, malformed JSON and signature mismatch are deliberately
// indistinguishable: all return ErrInvalidState.
func (s *Signer) Decode(state string) (Payload, error) {
	raw, err := base64.RawURLEncoding.DecodeString(state)
	if err != nil {
		return Payload{}, brokererrors.ErrInvalidState
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Payload{}, brokererrors.ErrInvalidState
	}

	sig, err := base64.StdEncoding.DecodeString(env.Signature)
	if err != nil {
		return Payload{}, brokererrors.ErrInvalidState
	}

	if !s.Verify([]byte(env.Data), sig) {
		return Payload{}, brokererrors.ErrInvalidState
	}

	// Only parse fields after the signature has been checked
	var p Payload
	if err := json.Unmarshal([]byte(env.Data), &p); err != nil {
		return Payload{}, brokererrors.ErrInvalidState
	}

	return p, nil
}
