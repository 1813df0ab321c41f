// Package oauth provides the loopback HTTP server that receives login redirects.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/logger"
)

const (
	// DefaultPath is the callback path used when none is configured.
	DefaultPath = "/callback"
	// DefaultCallbackPort is the first port tried when the redirect URL names none.
	DefaultCallbackPort = 8085
)

// CallbackSink receives callback events. OAuthService.Deliver satisfies it.
type CallbackSink interface {
	Deliver(event domain.CallbackEvent) error
}

// CallbackServer receives the provider redirect on a loopback address and
// forwards it as a callback event tagged with the expected correlation id.
type CallbackServer struct {
	mu            sync.Mutex
	port          int
	path          string
	sink          CallbackSink
	correlationID string
	early         []domain.CallbackEvent
	errChan       chan error
	server        *http.Server
	listener      net.Listener
}

// NewCallbackServer creates a callback server for port and path.
// Port 0 picks a free port on Start.
func NewCallbackServer(port int, path string, sink CallbackSink) *CallbackServer {
	if path == "" {
		path = DefaultPath
	}
	return &CallbackServer{
		port:    port,
		path:    path,
		sink:    sink,
		errChan: make(chan error, 1),
	}
}

// ParseLoopbackRedirect extracts the port and path from a loopback redirect URL.
// It fails for redirect URLs this server cannot receive, such as custom schemes.
func ParseLoopbackRedirect(redirectURL string) (port int, path string, err error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return 0, "", fmt.Errorf("parse redirect url: %w", err)
	}
	if u.Scheme != "http" {
		return 0, "", fmt.Errorf("redirect url %q is not an http loopback address", redirectURL)
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
	default:
		return 0, "", fmt.Errorf("redirect url %q is not a loopback address", redirectURL)
	}
	port = 80
	if p := u.Port(); p != "" {
		if port, err = strconv.Atoi(p); err != nil {
			return 0, "", fmt.Errorf("redirect url port: %w", err)
		}
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return port, path, nil
}

// Start starts the callback server on the configured port.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(s.path, s.handleCallback)

	s.server = &http.Server{
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	// Store the actual port (important when port was 0)
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case s.errChan <- err:
			default:
			}
		}
	}()

	logger.Debug("callback server listening on %s", s.RedirectURI())
	return nil
}

// maxEarlyCallbacks bounds the callbacks held before Expect. A login
// produces one redirect, so only the first is kept.
const maxEarlyCallbacks = 1

// Expect sets the correlation id attached to received callbacks. Callbacks
// that arrived before Expect are delivered now.
func (s *CallbackServer) Expect(correlationID string) {
	s.mu.Lock()
	s.correlationID = correlationID
	early := s.early
	s.early = nil
	s.mu.Unlock()

	for _, event := range early {
		event.CorrelationID = correlationID
		s.deliver(event)
	}
}

// Errors reports a server failure after Start.
func (s *CallbackServer) Errors() <-chan error {
	return s.errChan
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	// Implicit-flow tokens arrive in the fragment, which browsers never send.
	// Bounce them into the query string.
	if r.URL.RawQuery == "" {
		fmt.Fprint(w, fragmentBounceHTML)
		return
	}

	event, err := domain.CallbackFromRedirect("", r.URL.String())
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, resultHTML("Sign-in failed", "The redirect could not be read."))
		return
	}

	s.mu.Lock()
	correlationID := s.correlationID
	held := true
	if correlationID == "" {
		if len(s.early) < maxEarlyCallbacks {
			s.early = append(s.early, event)
		} else {
			held = false
		}
	}
	s.mu.Unlock()
	if !held {
		logger.Debug("dropping callback received before the login started")
	}
	if correlationID != "" {
		event.CorrelationID = correlationID
		s.deliver(event)
	}

	if code := event.Param("error"); code != "" {
		desc := firstNonEmpty(event.Param("error_description"), code)
		fmt.Fprint(w, resultHTML("Sign-in failed", html.EscapeString(desc)))
		return
	}
	fmt.Fprint(w, resultHTML("Sign-in received", "You can close this window and return to the application."))
}

func (s *CallbackServer) deliver(event domain.CallbackEvent) {
	if err := s.sink.Deliver(event); err != nil {
		logger.Warn("dropping callback: %v", err)
	}
}

// Stop shuts down the callback server.
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Port returns the port the server is listening on.
func (s *CallbackServer) Port() int {
	return s.port
}

// RedirectURI returns the redirect URI for this callback server.
func (s *CallbackServer) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d%s", s.port, s.path)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

const fragmentBounceHTML = `<!DOCTYPE html>
<html>
<head><title>Signing in</title></head>
<body>
<script>
if (window.location.hash.length > 1) {
    window.location.replace(window.location.pathname + "?" + window.location.hash.substring(1));
} else {
    document.body.textContent = "Nothing to do here. Return to the application.";
}
</script>
</body>
</html>`

func resultHTML(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>sociallogin</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: #FAFAFA;
        }
        .container {
            text-align: center;
            background: white;
            padding: 48px 64px;
            border-radius: 16px;
            border: 1px solid #C7C8CC;
        }
        h1 { color: #333F50; margin: 0 0 8px 0; font-size: 24px; }
        p { color: #7B8088; margin: 0; font-size: 16px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>`, title, message)
}
