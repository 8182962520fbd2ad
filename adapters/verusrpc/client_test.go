package verusrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fried333/verus-connect/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		APIURL:      srv.URL,
		IAddress:    "iServiceIdentity",
		PrivateKey:  "UwWIFKeyForTests",
		CallbackURL: "https://app.example.com/auth/verus/verusidlogin",
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiredConfig(t *testing.T) {
	for name, cfg := range map[string]Config{
		"missing iAddress":    {PrivateKey: "k", CallbackURL: "u"},
		"missing privateKey":  {IAddress: "i", CallbackURL: "u"},
		"missing callbackUrl": {IAddress: "i", PrivateKey: "k"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewClient(cfg)
			assert.ErrorIs(t, err, core.ErrConfiguration)
		})
	}
}

func TestCreateLoginRequest(t *testing.T) {
	var gotMethod string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotMethod = req.Method
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]string{"signature": "AfN1Qsig"},
		})
	})

	uri, err := client.CreateLoginRequest(context.Background(), &core.Challenge{
		ID:                   "iChallenge",
		CreatedAt:            time.Now(),
		RequestedPermissions: []string{"iP3euVSzNcXUrLNHnQnR9G6q8jeYuGSxgw"},
	})
	require.NoError(t, err)

	assert.Equal(t, "signdata", gotMethod)
	assert.Contains(t, uri, "verus://x-callback-url/login-consent-request?request=")
}

func TestVerifyLoginResponse(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"result": map[string]bool{"valid": true}})
		})

		ok, err := client.VerifyLoginResponse(context.Background(), &core.SignedResponse{
			SigningID: "iSigner", Signature: "sig", Raw: []byte(`{}`),
		})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rpc rejection is a denial, not an outage", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"result": nil,
				"error":  map[string]any{"code": -5, "message": "invalid signature"},
			})
		})

		ok, err := client.VerifyLoginResponse(context.Background(), &core.SignedResponse{
			SigningID: "iSigner", Signature: "sig", Raw: []byte(`{}`),
		})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("transport failure is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // connection refused from here on

		client, err := NewClient(Config{
			APIURL:      srv.URL,
			IAddress:    "iServiceIdentity",
			PrivateKey:  "UwWIFKeyForTests",
			CallbackURL: "https://app.example.com/cb",
		})
		require.NoError(t, err)

		_, err = client.VerifyLoginResponse(context.Background(), &core.SignedResponse{
			SigningID: "iSigner", Signature: "sig", Raw: []byte(`{}`),
		})
		assert.Error(t, err)
	})
}

func TestResolveFriendlyName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"identity": map[string]string{"name": "player3"}},
		})
	})

	name, err := client.ResolveFriendlyName(context.Background(), "iSigner")
	require.NoError(t, err)
	assert.Equal(t, "player3@", name)
}
