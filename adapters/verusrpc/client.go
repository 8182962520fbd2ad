// Package verusrpc implements the VerusClient port against a Verus daemon
// (or public API) JSON-RPC endpoint.
package verusrpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/Fried333/verus-connect/core"
	"github.com/Fried333/verus-connect/internal/identity"
	"github.com/Fried333/verus-connect/ports"
)

const (
	// DefaultAPIURL is the public Verus API endpoint
	DefaultAPIURL = "https://api.verus.services"

	// DefaultChainID is the VRSC mainnet i-address
	DefaultChainID = "i5w5MuNik5NtLcYmNzcvaoixooEebB6MGV"

	// loginConsentWebhookKey is the VDXF key marking the redirect URI as a
	// webhook rather than a browser redirect.
	loginConsentWebhookKey = "iH6tcvPR1XvKvF6iopcSNhSoyCy1mnEmQ7"

	deeplinkScheme = "verus://x-callback-url/login-consent-request"
)

// Config configures a Client
type Config struct {
	// APIURL is the JSON-RPC endpoint (default: the public Verus API)
	APIURL string

	// Chain is the chain name requests are scoped to (default "VRSC")
	Chain string

	// ChainID is the chain's i-address (default VRSC mainnet)
	ChainID string

	// IAddress is the service identity that signs login consent requests
	IAddress string

	// PrivateKey is the WIF key for IAddress
	PrivateKey string

	// CallbackURL is where the wallet POSTs the signed response
	CallbackURL string

	// RedirectURL, when set, sends mobile users back to the app after signing
	RedirectURL string

	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client talks JSON-RPC to a Verus daemon
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

// NewClient creates a Verus RPC client. The service identity, its key and
// the callback URL are required; everything else has mainnet defaults.
func NewClient(cfg Config) (*Client, error) {
	if cfg.IAddress == "" {
		return nil, fmt.Errorf("%w: iAddress is required", core.ErrConfiguration)
	}
	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("%w: privateKey is required", core.ErrConfiguration)
	}
	if cfg.CallbackURL == "" {
		return nil, fmt.Errorf("%w: callbackUrl is required", core.ErrConfiguration)
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Chain == "" {
		cfg.Chain = "VRSC"
	}
	if cfg.ChainID == "" {
		cfg.ChainID = DefaultChainID
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{cfg: cfg, http: cfg.HTTPClient, log: cfg.Logger}, nil
}

var _ ports.VerusClient = (*Client)(nil)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("verus rpc error %d: %s", e.Code, e.Message)
}

// call performs one JSON-RPC round trip. Transport failures are returned
// verbatim so callers can distinguish "unreachable" from "rejected".
func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "1.0",
		ID:      "verus-connect",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s call failed: %w", method, err)
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

// loginConsentChallenge mirrors the wallet's login consent challenge shape
type loginConsentChallenge struct {
	ChallengeID     string        `json:"challenge_id"`
	RequestedAccess []string      `json:"requested_access"`
	RedirectURIs    []redirectURI `json:"redirect_uris"`
	Subject         []string      `json:"subject"`
	CreatedAt       int64         `json:"created_at"`
	Salt            string        `json:"salt"`
}

type redirectURI struct {
	URI  string `json:"uri"`
	Type string `json:"vdxf_key"`
}

// CreateLoginRequest builds the login consent request for a challenge,
// signs it with the service identity via the daemon's signdata call, and
// assembles the wallet deep link.
func (c *Client) CreateLoginRequest(ctx context.Context, challenge *core.Challenge) (string, error) {
	salt, err := identity.NewSalt()
	if err != nil {
		return "", err
	}

	consent := loginConsentChallenge{
		ChallengeID:     challenge.ID,
		RequestedAccess: challenge.RequestedPermissions,
		RedirectURIs: []redirectURI{
			{URI: c.cfg.CallbackURL, Type: loginConsentWebhookKey},
		},
		Subject:   []string{},
		CreatedAt: challenge.CreatedAt.Unix(),
		Salt:      salt,
	}
	if c.cfg.RedirectURL != "" {
		consent.RedirectURIs = append(consent.RedirectURIs, redirectURI{URI: c.cfg.RedirectURL, Type: "redirect"})
	}

	payload, err := json.Marshal(consent)
	if err != nil {
		return "", fmt.Errorf("failed to encode login consent challenge: %w", err)
	}

	var signed struct {
		Signature string `json:"signature"`
	}
	params := []any{map[string]any{
		"address":    c.cfg.IAddress,
		"message":    string(payload),
		"privatekey": c.cfg.PrivateKey,
	}}
	if err := c.call(ctx, "signdata", params, &signed); err != nil {
		return "", err
	}

	request := map[string]any{
		"system_id":  c.cfg.ChainID,
		"signing_id": c.cfg.IAddress,
		"signature":  signed.Signature,
		"challenge":  consent,
	}
	encoded, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to encode login consent request: %w", err)
	}

	uri := deeplinkScheme + "?request=" + url.QueryEscape(base64.RawURLEncoding.EncodeToString(encoded))
	return uri, nil
}

// VerifyLoginResponse asks the daemon to verify the wallet's signature over
// the consent response. A daemon-side rejection is a denial (false, nil); a
// transport failure is returned as an error so it surfaces as retryable.
func (c *Client) VerifyLoginResponse(ctx context.Context, response *core.SignedResponse) (bool, error) {
	var result struct {
		Valid bool `json:"valid"`
	}
	params := []any{map[string]any{
		"address":   response.SigningID,
		"signature": response.Signature,
		"message":   string(response.Raw),
	}}
	if err := c.call(ctx, "verifysignature", params, &result); err != nil {
		var rpcErr *rpcError
		if errors.As(err, &rpcErr) {
			// The daemon answered; an RPC-level rejection is a denial.
			c.log.Debug().Err(err).Msg("daemon rejected login consent response")
			return false, nil
		}
		return false, err
	}
	return result.Valid, nil
}

// ResolveFriendlyName resolves an i-address to its "name@" form
func (c *Client) ResolveFriendlyName(ctx context.Context, iAddress string) (string, error) {
	var result struct {
		Identity struct {
			Name string `json:"name"`
		} `json:"identity"`
	}
	if err := c.call(ctx, "getidentity", []any{iAddress}, &result); err != nil {
		return "", err
	}
	if result.Identity.Name == "" {
		return "", fmt.Errorf("identity %s has no name", iAddress)
	}
	return result.Identity.Name + "@", nil
}
