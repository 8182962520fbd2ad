package verusconnect

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fried333/verus-connect/core"
)

type fakeProvider struct {
	loginURIs chan string
	sendTxID  string
	sendErr   error
}

func (p fakeProvider) RequestLogin(ctx context.Context, uri string) error {
	if p.loginURIs != nil {
		p.loginURIs <- uri
	}
	return nil
}

func (p fakeProvider) SendTransaction(ctx context.Context, params SendParams) (string, error) {
	return p.sendTxID, p.sendErr
}

type fakeSurface struct {
	mu       sync.Mutex
	statuses []string
	destroys int
	closed   chan struct{}
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{closed: make(chan struct{})}
}

func (s *fakeSurface) SetStatus(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, text)
}

func (s *fakeSurface) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroys++
}

func (s *fakeSurface) Closed() <-chan struct{} { return s.closed }

func (s *fakeSurface) destroyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroys
}

// testClient builds a Connect wired to in-process fakes. verifyAfter
// controls how many pending reads precede the verified response.
func testClient(t *testing.T, cfg Config, verifyAfter int32) *Connect {
	t.Helper()

	if cfg.GetChallenge == nil {
		cfg.GetChallenge = func(ctx context.Context) (*core.ChallengeResponse, error) {
			return &core.ChallengeResponse{
				ChallengeID: "iChallenge",
				URI:         "verus://x-callback-url/login-consent-request?request=abc",
			}, nil
		}
	}
	if cfg.GetResult == nil {
		var calls int32
		cfg.GetResult = func(ctx context.Context, id string) (*core.PollResponse, error) {
			if atomic.AddInt32(&calls, 1) <= verifyAfter {
				return &core.PollResponse{Status: core.StatusPending}, nil
			}
			return &core.PollResponse{Status: core.StatusVerified, IAddress: "iSigner", FriendlyName: "player3@"}, nil
		}
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 10 * time.Millisecond
	}
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = time.Second
	}

	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestNew_RequiresBackend(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = New(Config{GetChallenge: func(ctx context.Context) (*core.ChallengeResponse, error) { return nil, nil }})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = New(Config{ServerURL: "https://app.example.com/auth/verus"})
	assert.NoError(t, err)
}

func TestLogin_ExtensionPath(t *testing.T) {
	loginURIs := make(chan string, 1)
	var encodes int32

	surface := newFakeSurface()
	c := testClient(t, Config{
		Provider:  fakeProvider{loginURIs: loginURIs},
		UserAgent: desktopUA,
		Surface:   func(SurfaceOptions) Surface { return surface },
		Encode: func(uri string, size int) ([]byte, error) {
			atomic.AddInt32(&encodes, 1)
			return []byte("png"), nil
		},
	}, 0)

	result, err := c.Login(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, MethodExtension, result.Method)
	assert.Equal(t, "iSigner", result.IAddress)
	assert.Equal(t, "player3@", result.FriendlyName)

	// Extension path never renders a code; the provider gets the URI.
	assert.Zero(t, atomic.LoadInt32(&encodes))
	select {
	case uri := <-loginURIs:
		assert.Equal(t, "verus://x-callback-url/login-consent-request?request=abc", uri)
	case <-time.After(time.Second):
		t.Fatal("provider never received the login request")
	}
	assert.Equal(t, 1, surface.destroyCount(), "teardown must run exactly once")
}

func TestLogin_DesktopPathEncodesExactlyOnce(t *testing.T) {
	var encodes int32
	var encodedURI string

	c := testClient(t, Config{
		UserAgent: desktopUA,
		Encode: func(uri string, size int) ([]byte, error) {
			atomic.AddInt32(&encodes, 1)
			encodedURI = uri
			return []byte("png"), nil
		},
	}, 0)

	result, err := c.Login(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, MethodQR, result.Method)
	assert.EqualValues(t, 1, atomic.LoadInt32(&encodes))
	assert.Equal(t, "verus://x-callback-url/login-consent-request?request=abc", encodedURI)
}

func TestLogin_MobilePathUsesDeepLink(t *testing.T) {
	var opts SurfaceOptions
	c := testClient(t, Config{
		UserAgent: androidUA,
		Surface: func(o SurfaceOptions) Surface {
			opts = o
			return newFakeSurface()
		},
	}, 0)

	result, err := c.Login(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, MethodDeepLink, result.Method)
	assert.Equal(t, "verus://x-callback-url/login-consent-request?request=abc", opts.DeepLink)
	assert.Empty(t, opts.Code)
}

func TestLogin_MobileRejectsUnsafeScheme(t *testing.T) {
	c := testClient(t, Config{
		UserAgent: androidUA,
		GetChallenge: func(ctx context.Context) (*core.ChallengeResponse, error) {
			return &core.ChallengeResponse{ChallengeID: "iChallenge", URI: "javascript://alert(1)"}, nil
		},
	}, 0)

	_, err := c.Login(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnsafeDeepLink)
}

func TestLogin_SuppliedChallengeSkipsFetch(t *testing.T) {
	fetched := false
	c := testClient(t, Config{
		UserAgent: desktopUA,
		GetChallenge: func(ctx context.Context) (*core.ChallengeResponse, error) {
			fetched = true
			return nil, nil
		},
	}, 0)

	result, err := c.Login(context.Background(), &LoginOptions{
		Challenge: &core.ChallengeResponse{ChallengeID: "iChallenge", URI: "verus://x-callback-url/r?x=1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "iSigner", result.IAddress)
	assert.False(t, fetched)
}

func TestLogin_SurfaceCloseCancelsPolling(t *testing.T) {
	surface := newFakeSurface()
	c := testClient(t, Config{
		UserAgent:   desktopUA,
		PollTimeout: 5 * time.Second,
		Surface:     func(SurfaceOptions) Surface { return surface },
	}, 1<<30) // never verifies

	go func() {
		time.Sleep(30 * time.Millisecond)
		close(surface.closed)
	}()

	_, err := c.Login(context.Background(), nil)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 1, surface.destroyCount())
}

func TestLogin_SecondLoginCancelsFirst(t *testing.T) {
	firstPolling := make(chan struct{})
	var once sync.Once

	c := testClient(t, Config{
		UserAgent: desktopUA,
		GetResult: func(ctx context.Context, id string) (*core.PollResponse, error) {
			if id == "iFirst" {
				once.Do(func() { close(firstPolling) })
				return &core.PollResponse{Status: core.StatusPending}, nil
			}
			return &core.PollResponse{Status: core.StatusVerified, IAddress: "iSigner"}, nil
		},
	}, 0)

	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Login(context.Background(), &LoginOptions{
			Challenge: &core.ChallengeResponse{ChallengeID: "iFirst", URI: "verus://x/r"},
		})
		firstErr <- err
	}()

	<-firstPolling

	result, err := c.Login(context.Background(), &LoginOptions{
		Challenge: &core.ChallengeResponse{ChallengeID: "iSecond", URI: "verus://x/r"},
	})
	require.NoError(t, err)
	assert.Equal(t, "iSigner", result.IAddress)

	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, ErrCancelled)
	case <-time.After(time.Second):
		t.Fatal("first login never settled")
	}
}

func TestLogin_EmitsLifecycleEvents(t *testing.T) {
	c := testClient(t, Config{UserAgent: desktopUA}, 0)

	var mu sync.Mutex
	var seen []Event
	record := func(event Event) Listener {
		return func(any) {
			mu.Lock()
			seen = append(seen, event)
			mu.Unlock()
		}
	}

	for _, ev := range []Event{EventLoginStart, EventProviderDetected, EventSurfaceOpen, EventLoginSuccess} {
		c.On(ev, record(ev))
	}

	_, err := c.Login(context.Background(), nil)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Event{EventLoginStart, EventProviderDetected, EventSurfaceOpen, EventLoginSuccess}, seen)
}

func TestSend_RequiresExtension(t *testing.T) {
	c := testClient(t, Config{UserAgent: desktopUA}, 0)

	_, err := c.Send(context.Background(), SendOptions{To: "iSomeone", Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrExtensionRequired)
}

func TestSend_ViaExtension(t *testing.T) {
	c := testClient(t, Config{
		UserAgent: desktopUA,
		Provider:  fakeProvider{sendTxID: "deadbeef"},
	}, 0)

	result, err := c.Send(context.Background(), SendOptions{
		To:     "iSomeone",
		Amount: decimal.RequireFromString("1.25"),
	})
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", result.TxID)
	assert.Equal(t, MethodExtension, result.Method)
}

func TestOn_ReturnsRemover(t *testing.T) {
	c := testClient(t, Config{UserAgent: desktopUA}, 0)

	var calls int32
	remove := c.On(EventLoginStart, func(any) { atomic.AddInt32(&calls, 1) })

	_, err := c.Login(context.Background(), nil)
	require.NoError(t, err)

	remove()
	_, err = c.Login(context.Background(), nil)
	require.NoError(t, err)

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}
