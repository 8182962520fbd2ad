// Package verusconnect is the client side of the VerusID login protocol:
// it acquires a challenge from the application server, routes the delivery
// URI to the user's wallet (extension call, scannable code or deep link),
// and polls the server until the wallet's signed response has been
// verified out-of-band.
package verusconnect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Fried333/verus-connect/core"
)

// LoginMethod records how a login or send was completed
type LoginMethod string

const (
	MethodExtension LoginMethod = "extension"
	MethodQR        LoginMethod = "qr"
	MethodDeepLink  LoginMethod = "deeplink"
)

// Client is the public interface for running wallet logins
type Client interface {
	// Login runs one cancellable login attempt end to end
	Login(ctx context.Context, opts *LoginOptions) (*LoginResult, error)

	// Send performs an asset transfer through the wallet extension
	Send(ctx context.Context, opts SendOptions) (*SendResult, error)

	// Cancel aborts any in-flight login or send
	Cancel()

	// Destroy cancels everything and drops all event listeners
	Destroy()

	// On registers a lifecycle listener and returns its removal function
	On(event Event, listener Listener) func()

	// EnvironmentNow classifies the current environment without waiting
	EnvironmentNow() Environment

	// ExtensionAvailable reports whether the wallet extension is present
	ExtensionAvailable() bool
}

// Config configures a Connect client
type Config struct {
	// AppName is shown on the presentation surface
	AppName string

	// ServerURL points at the server middleware; when set, GetChallenge
	// and GetResult default to POST {ServerURL}/login and
	// GET {ServerURL}/result/{id}.
	ServerURL string

	// GetChallenge overrides the ServerURL-derived challenge fetch
	GetChallenge func(ctx context.Context) (*core.ChallengeResponse, error)

	// GetResult overrides the ServerURL-derived result poll
	GetResult GetResultFunc

	// PollInterval between result queries (default 3s)
	PollInterval time.Duration

	// PollTimeout before a login attempt gives up (default 5m)
	PollTimeout time.Duration

	// ProviderGrace bounds the wait for a late provider-ready signal
	// (default 500ms)
	ProviderGrace time.Duration

	// Provider is the wallet extension provider, when the host has one
	Provider Provider

	// ProviderReady is signalled when a provider finishes initializing
	ProviderReady <-chan struct{}

	// UserAgent drives mobile/desktop classification
	UserAgent string

	// Surface builds the presentation surface for each attempt
	Surface SurfaceFactory

	// Encode renders delivery URIs into scannable images (default QR)
	Encode EncodeFunc

	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// LoginOptions tweaks a single login attempt
type LoginOptions struct {
	// Challenge skips the challenge fetch when the caller already has one
	Challenge *core.ChallengeResponse
}

// LoginResult is the outcome of a successful login
type LoginResult struct {
	Method       LoginMethod
	IAddress     string
	FriendlyName string
	Data         map[string]any
}

// Connect implements Client
type Connect struct {
	cfg          Config
	getChallenge func(ctx context.Context) (*core.ChallengeResponse, error)
	getResult    GetResultFunc
	resolver     Resolver
	surface      SurfaceFactory
	encode       EncodeFunc
	events       emitter
	log          zerolog.Logger

	mu     sync.Mutex
	active *attempt
}

var _ Client = (*Connect)(nil)

// New creates a Connect client. Either ServerURL or both GetChallenge and
// GetResult must be provided; custom functions take priority.
func New(cfg Config) (*Connect, error) {
	if cfg.ServerURL == "" && (cfg.GetChallenge == nil || cfg.GetResult == nil) {
		return nil, ErrConfiguration
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	if cfg.ProviderGrace <= 0 {
		cfg.ProviderGrace = DefaultProviderGrace
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	c := &Connect{
		cfg: cfg,
		resolver: Resolver{
			Probe:     func() Provider { return cfg.Provider },
			Ready:     cfg.ProviderReady,
			UserAgent: cfg.UserAgent,
		},
		surface: cfg.Surface,
		encode:  cfg.Encode,
		log:     cfg.Logger,
	}
	if c.surface == nil {
		c.surface = newNopSurface
	}
	if c.encode == nil {
		c.encode = EncodeQR
	}

	base := strings.TrimRight(cfg.ServerURL, "/")

	c.getChallenge = cfg.GetChallenge
	if c.getChallenge == nil {
		c.getChallenge = func(ctx context.Context) (*core.ChallengeResponse, error) {
			var challenge core.ChallengeResponse
			if err := c.doJSON(ctx, http.MethodPost, base+"/login", &challenge); err != nil {
				return nil, err
			}
			return &challenge, nil
		}
	}

	c.getResult = cfg.GetResult
	if c.getResult == nil {
		c.getResult = func(ctx context.Context, challengeID string) (*core.PollResponse, error) {
			var poll core.PollResponse
			if err := c.doJSON(ctx, http.MethodGet, base+"/result/"+challengeID, &poll); err != nil {
				return nil, err
			}
			return &poll, nil
		}
	}

	return c, nil
}

func (c *Connect) doJSON(ctx context.Context, method, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request to %s failed: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// attempt tracks the cancellation token and surface of one in-flight
// operation. Teardown runs exactly once across every exit path.
type attempt struct {
	cancel context.CancelFunc

	mu      sync.Mutex
	surface Surface
	once    sync.Once
}

func (a *attempt) setSurface(s Surface) {
	a.mu.Lock()
	a.surface = s
	a.mu.Unlock()
}

func (a *attempt) teardown() {
	a.once.Do(func() {
		a.cancel()
		a.mu.Lock()
		s := a.surface
		a.surface = nil
		a.mu.Unlock()
		if s != nil {
			s.Destroy()
		}
	})
}

// begin cancels any prior operation synchronously (last caller wins, no
// queuing) and registers a fresh attempt.
func (c *Connect) begin(parent context.Context) (context.Context, *attempt) {
	ctx, cancel := context.WithCancel(parent)
	a := &attempt{cancel: cancel}

	c.mu.Lock()
	prev := c.active
	c.active = a
	c.mu.Unlock()

	if prev != nil {
		prev.teardown()
	}
	return ctx, a
}

func (c *Connect) finish(a *attempt) {
	a.teardown()
	c.mu.Lock()
	if c.active == a {
		c.active = nil
	}
	c.mu.Unlock()
}

// Login runs one login attempt: acquire a challenge, route it to the
// wallet by environment, and poll until the server has verified the
// wallet's response.
func (c *Connect) Login(ctx context.Context, opts *LoginOptions) (*LoginResult, error) {
	ctx, a := c.begin(ctx)
	defer c.finish(a)

	c.events.emit(EventLoginStart, nil)

	result, err := c.login(ctx, a, opts)
	switch {
	case err == nil:
		c.events.emit(EventLoginSuccess, result)
	case errors.Is(err, ErrCancelled):
		c.events.emit(EventLoginCancel, nil)
	default:
		c.events.emit(EventLoginError, err)
	}
	return result, err
}

func (c *Connect) login(ctx context.Context, a *attempt, opts *LoginOptions) (*LoginResult, error) {
	var challenge *core.ChallengeResponse
	if opts != nil && opts.Challenge != nil {
		challenge = opts.Challenge
	} else {
		fetched, err := c.getChallenge(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrCancelled
			}
			return nil, fmt.Errorf("challenge request failed: %w", err)
		}
		challenge = fetched
	}

	env := c.resolver.Resolve(ctx, c.cfg.ProviderGrace)
	c.events.emit(EventProviderDetected, env)

	method := MethodQR
	surfaceOpts := SurfaceOptions{
		AppName:     c.cfg.AppName,
		Environment: env,
		StatusText:  "Waiting for approval…",
	}

	switch env {
	case EnvironmentExtension:
		method = MethodExtension
		provider := c.resolver.Probe()
		// Best-effort notify: the extension settles its own promise in the
		// popup, but the authoritative outcome arrives via polling.
		go func() {
			if err := provider.RequestLogin(ctx, challenge.URI); err != nil {
				c.log.Debug().Err(err).Msg("extension login request rejected")
			}
		}()
	case EnvironmentMobile:
		method = MethodDeepLink
		if err := ValidateDeepLink(challenge.URI); err != nil {
			return nil, err
		}
		surfaceOpts.DeepLink = challenge.URI
	default:
		code, err := c.encode(challenge.URI, DefaultCodeSize)
		if err != nil {
			return nil, fmt.Errorf("failed to encode delivery uri: %w", err)
		}
		surfaceOpts.Code = code
	}

	surface := c.surface(surfaceOpts)
	a.setSurface(surface)
	c.events.emit(EventSurfaceOpen, nil)

	// A user dismissing the surface cancels the same token the poller
	// watches.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-surface.Closed():
			c.events.emit(EventSurfaceClose, nil)
			a.teardown()
		case <-watchDone:
		}
	}()

	resp, err := Poll(ctx, c.getResult, challenge.ChallengeID, c.cfg.PollInterval, c.cfg.PollTimeout)
	if err != nil {
		return nil, err
	}

	surface.SetStatus("Approved!")

	return &LoginResult{
		Method:       method,
		IAddress:     resp.IAddress,
		FriendlyName: resp.FriendlyName,
		Data:         resp.Data,
	}, nil
}

// Send performs a single request/response asset transfer. Only available
// when the wallet extension is present; shares the single-in-flight rule
// with Login.
func (c *Connect) Send(ctx context.Context, opts SendOptions) (*SendResult, error) {
	ctx, a := c.begin(ctx)
	defer c.finish(a)

	c.events.emit(EventSendStart, opts)

	provider := c.resolver.Probe()
	if provider == nil {
		err := ErrExtensionRequired
		c.events.emit(EventSendError, err)
		return nil, err
	}

	currency := opts.Currency
	if currency == "" {
		currency = "VRSC"
	}

	txid, err := provider.SendTransaction(ctx, SendParams{
		To:       opts.To,
		Amount:   opts.Amount,
		Currency: currency,
	})
	if err != nil {
		if ctx.Err() != nil {
			err = ErrCancelled
		}
		c.events.emit(EventSendError, err)
		return nil, err
	}

	result := &SendResult{TxID: txid, Method: MethodExtension}
	c.events.emit(EventSendSuccess, result)
	return result, nil
}

// Cancel aborts any in-flight login or send
func (c *Connect) Cancel() {
	c.mu.Lock()
	a := c.active
	c.active = nil
	c.mu.Unlock()

	if a != nil {
		a.teardown()
	}
}

// Destroy cancels everything and drops all listeners
func (c *Connect) Destroy() {
	c.Cancel()
	c.events.clear()
}

// On registers a lifecycle listener; the returned function removes it
func (c *Connect) On(event Event, listener Listener) func() {
	return c.events.on(event, listener)
}

// EnvironmentNow classifies the current environment without waiting
func (c *Connect) EnvironmentNow() Environment {
	return c.resolver.Detect()
}

// ExtensionAvailable reports whether the wallet extension is present
func (c *Connect) ExtensionAvailable() bool {
	return c.resolver.Detect() == EnvironmentExtension
}
