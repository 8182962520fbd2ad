package tokenizer

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fried333/verus-connect/core"
)

func newTokenizer(t *testing.T) *SessionTokenizer {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return NewSessionTokenizer(key, time.Hour)
}

func TestMintAndParse(t *testing.T) {
	tok := newTokenizer(t)

	login := &core.VerifiedLogin{
		IAddress:     "iSigner",
		FriendlyName: "player3@",
		ChallengeID:  "iChallenge",
	}

	signed, err := tok.Mint(login)
	require.NoError(t, err)

	claims, err := tok.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "iSigner", claims.Subject)
	assert.Equal(t, "player3@", claims.FriendlyName)
	assert.Equal(t, "iChallenge", claims.ChallengeID)
	assert.NotEmpty(t, claims.ID)
}

func TestParse_RejectsForeignKey(t *testing.T) {
	signed, err := newTokenizer(t).Mint(&core.VerifiedLogin{IAddress: "iSigner"})
	require.NoError(t, err)

	_, err = newTokenizer(t).Parse(signed)
	assert.Error(t, err)
}

func TestHook(t *testing.T) {
	tok := newTokenizer(t)

	data, err := tok.Hook()(context.Background(), &core.VerifiedLogin{IAddress: "iSigner"})
	require.NoError(t, err)

	signed, ok := data["token"].(string)
	require.True(t, ok)

	claims, err := tok.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "iSigner", claims.Subject)
}
