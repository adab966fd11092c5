package statesign_test

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	brokererrors "github.com/admuse/go-link-broker/internal/errors"
	"github.com/admuse/go-link-broker/statesign"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-secret"

func TestNew_RequiresSecret(t *testing.T) {
	_, err := statesign.New(nil)
	require.Error(t, err)

	_, err = statesign.New([]byte(testSecret))
	require.NoError(t, err)
}

func TestSigner_SignVerify(t *testing.T) {
	signer, err := statesign.New([]byte(testSecret))
	require.NoError(t, err)

	payload := []byte(`{"linkSessionId":"s1","nonce":"n1"}`)
	sig := signer.Sign(payload)
	require.True(t, signer.Verify(payload, sig))

	t.Run("tampered payload fails", func(t *testing.T) {
		mutated := append([]byte(nil), payload...)
		mutated[0] ^= 0x01
		require.False(t, signer.Verify(mutated, sig))
	})

	t.Run("tampered signature fails", func(t *testing.T) {
		mutated := append([]byte(nil), sig...)
		mutated[0] ^= 0x01
		require.False(t, signer.Verify(payload, mutated))
	})

	t.Run("truncated signature fails", func(t *testing.T) {
		require.False(t, signer.Verify(payload, sig[:len(sig)-1]))
	})

	t.Run("different key fails", func(t *testing.T) {
		other, err := statesign.New([]byte("another-secret"))
		require.NoError(t, err)
		require.False(t, other.Verify(payload, sig))
	})
}

func TestSigner_EncodeDecode(t *testing.T) {
	signer, err := statesign.New([]byte(testSecret))
	require.NoError(t, err)

	payload := statesign.Payload{LinkSessionID: "session-1", Nonce: "nonce-1"}
	state, err := signer.Encode(payload)
	require.NoError(t, err)

	decoded, err := signer.Decode(state)
	require.NoError(t, err)
	require.Equal(t, payload, decoded)
}

func TestSigner_EncodeShape(t *testing.T) {
	signer, err := statesign.New([]byte(testSecret))
	require.NoError(t, err)

	state, err := signer.Encode(statesign.Payload{LinkSessionID: "s1", Nonce: "n1"})
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(state)
	require.NoError(t, err)

	var env struct {
		Data      string `json:"data"`
		Signature string `json:"signature"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	require.NotEmpty(t, env.Signature)

	var p struct {
		LinkSessionID string `json:"linkSessionId"`
		Nonce         string `json:"nonce"`
	}
	require.NoError(t, json.Unmarshal([]byte(env.Data), &p))
	require.Equal(t, "s1", p.LinkSessionID)
	require.Equal(t, "n1", p.Nonce)
}

func TestSigner_DecodeFailuresAreUniform(t *testing.T) {
	signer, err := statesign.New([]byte(testSecret))
	require.NoError(t, err)

	state, err := signer.Encode(statesign.Payload{LinkSessionID: "s1", Nonce: "n1"})
	require.NoError(t, err)

	t.Run("not base64", func(t *testing.T) {
		_, err := signer.Decode("%%%not-base64%%%")
		require.ErrorIs(t, err, brokererrors.ErrInvalidState)
	})

	t.Run("not JSON", func(t *testing.T) {
		_, err := signer.Decode(base64.RawURLEncoding.EncodeToString([]byte("plain text")))
		require.ErrorIs(t, err, brokererrors.ErrInvalidState)
	})

	t.Run("tampered envelope", func(t *testing.T) {
		raw, decErr := base64.RawURLEncoding.DecodeString(state)
		require.NoError(t, decErr)

		var env struct {
			Data      string `json:"data"`
			Signature string `json:"signature"`
		}
		require.NoError(t, json.Unmarshal(raw, &env))

		// Swap the session id inside the signed payload
		env.Data = `{"linkSessionId":"someone-else","nonce":"n1"}`
		tampered, mErr := json.Marshal(env)
		require.NoError(t, mErr)

		_, err := signer.Decode(base64.RawURLEncoding.EncodeToString(tampered))
		require.ErrorIs(t, err, brokererrors.ErrInvalidState)
	})

	t.Run("tampered signature", func(t *testing.T) {
		raw, decErr := base64.RawURLEncoding.DecodeString(state)
		require.NoError(t, decErr)

		var env map[string]string
		require.NoError(t, json.Unmarshal(raw, &env))
		sig, sErr := base64.StdEncoding.DecodeString(env["signature"])
		require.NoError(t, sErr)
		sig[0] ^= 0x01
		env["signature"] = base64.StdEncoding.EncodeToString(sig)
		tampered, mErr := json.Marshal(env)
		require.NoError(t, mErr)

		_, err := signer.Decode(base64.RawURLEncoding.EncodeToString(tampered))
		require.ErrorIs(t, err, brokererrors.ErrInvalidState)
	})
}
