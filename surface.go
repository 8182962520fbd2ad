package verusconnect

// Surface is the presentation collaborator shown while a login waits for
// wallet approval. Implementations range from a DOM modal in a webview
// shell to a terminal spinner; the orchestrator only drives status text and
// teardown, and treats a user-driven close as cancellation.
type Surface interface {
	// SetStatus updates the waiting text
	SetStatus(text string)

	// Destroy tears the surface down. Must be safe to call more than once.
	Destroy()

	// Closed is signalled when the user dismisses the surface
	Closed() <-chan struct{}
}

// SurfaceOptions describes what the surface should present
type SurfaceOptions struct {
	AppName     string
	Environment Environment

	// Code is the scannable image for desktop logins
	Code []byte

	// DeepLink is the actionable link for mobile logins
	DeepLink string

	StatusText string
}

// SurfaceFactory builds a surface for one login attempt
type SurfaceFactory func(opts SurfaceOptions) Surface

// nopSurface is the default when the host supplies no presentation layer
type nopSurface struct{ closed chan struct{} }

func newNopSurface(SurfaceOptions) Surface {
	return &nopSurface{closed: make(chan struct{})}
}

func (s *nopSurface) SetStatus(string)        {}
func (s *nopSurface) Destroy()                {}
func (s *nopSurface) Closed() <-chan struct{} { return s.closed }
