package enclave_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealedreg/internal/enclave"
)

func TestStaticVerifier(t *testing.T) {
	ctx := context.Background()
	verifier := enclave.NewStaticVerifier("shared-secret")
	handles := []enclave.Ciphertext{
		enclave.Ciphertext("name"),
		enclave.Ciphertext("age"),
	}

	t.Run("accepts its own proof", func(t *testing.T) {
		proof := verifier.ProofFor(handles)
		assert.NoError(t, verifier.VerifyAndBind(ctx, handles, proof))
	})

	t.Run("rejects a proof over different handles", func(t *testing.T) {
		proof := verifier.ProofFor(handles)
		other := []enclave.Ciphertext{enclave.Ciphertext("tampered"), enclave.Ciphertext("age")}
		assert.ErrorIs(t, verifier.VerifyAndBind(ctx, other, proof), enclave.ErrProofRejected)
	})

	t.Run("rejects a proof under another secret", func(t *testing.T) {
		forged := enclave.NewStaticVerifier("other-secret").ProofFor(handles)
		assert.ErrorIs(t, verifier.VerifyAndBind(ctx, handles, forged), enclave.ErrProofRejected)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := verifier.VerifyAndBind(cancelled, handles, verifier.ProofFor(handles))
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestCiphertextRedaction(t *testing.T) {
	ct := enclave.Ciphertext("top secret payload")
	assert.NotContains(t, ct.String(), "secret")
	assert.True(t, ct.Equal(enclave.Ciphertext("top secret payload")))
	assert.False(t, ct.Equal(enclave.Ciphertext("something else")))
}
