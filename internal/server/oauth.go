package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spautofy/internal/shared"
)

// CompletionMessage is shown once the authorization code has been handed off.
const CompletionMessage = "You successfully authorized the app. The web server is going to stop. You can close this window now."

var errAlreadyCaptured = errors.New("authorization code already received")

// CallbackResult is the outcome of one handshake: a captured code or the error that ended it.
type CallbackResult struct {
	Code string
	err  error
}

func (c CallbackResult) Error() error {
	return c.err
}

// HandshakeSession is the correlation token and captured code for one listener.
//
// Every method holds the lock for a single read or write only.
type HandshakeSession struct {
	mu    sync.Mutex
	state string
	code  string
}

// Rotate replaces the correlation token, invalidating any earlier one.
func (s *HandshakeSession) Rotate(generate func() (string, error)) (string, error) {
	state, err := generate()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	return state, nil
}

// Matches reports whether state is the active, non-empty correlation token.
func (s *HandshakeSession) Matches(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != "" && state == s.state
}

// Capture stores code if state is still the active token and no code was stored before.
func (s *HandshakeSession) Capture(state, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.code != "":
		return errAlreadyCaptured
	case s.state == "" || state != s.state:
		return fmt.Errorf("%w: state does not match the active authorization request", shared.ErrProtocolViolation)
	}
	s.code = code
	return nil
}

// Code returns the captured authorization code, or "" before the callback succeeds.
func (s *HandshakeSession) Code() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

// AuthorizationURLBuilder builds the provider redirect for a correlation token.
type AuthorizationURLBuilder interface {
	AuthorizationURL(state string) (string, error)
}

// CallbackOpts configures a [CallbackListener].
type CallbackOpts struct {
	Authorizer AuthorizationURLBuilder
	Generate   func() (string, error) // defaults to [shared.GenerateState]
	Persist    func() error           // called at most once, when /done first sees a code
	Logger     *log.Logger
}

// CallbackListener drives the browser through one authorization-code handshake.
//
// It owns the [HandshakeSession] and hands the captured code (or a fatal error) to the caller through [CallbackListener.Result].
// Handlers never terminate the process.
type CallbackListener struct {
	session  *HandshakeSession
	auth     AuthorizationURLBuilder
	generate func() (string, error)
	persist  func() error
	logger   *log.Logger

	resultChan  chan CallbackResult
	once        sync.Once
	persistOnce sync.Once
	persistErr  error
}

// NewCallbackListener creates a listener in the NoCode state.
func NewCallbackListener(opts CallbackOpts) *CallbackListener {
	l := &CallbackListener{
		session:    &HandshakeSession{},
		auth:       opts.Authorizer,
		generate:   opts.Generate,
		persist:    opts.Persist,
		logger:     opts.Logger,
		resultChan: make(chan CallbackResult, 1),
	}

	if l.generate == nil {
		l.generate = shared.GenerateState
	}
	if l.persist == nil {
		l.persist = func() error { return nil }
	}
	if l.logger == nil {
		l.logger = log.New(io.Discard)
	}
	return l
}

// Routes returns the HTTP routes this handler serves.
func (l *CallbackListener) Routes() []string {
	return []string{"/{$}", "/auth", "/callback", "/done"}
}

// Session exposes the handshake state.
func (l *CallbackListener) Session() *HandshakeSession {
	return l.session
}

func (l *CallbackListener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/":
		l.root(w, r)
	case "/auth":
		l.authorize(w, r)
	case "/callback":
		l.callback(w, r)
	case "/done":
		l.done(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (l *CallbackListener) root(w http.ResponseWriter, r *http.Request) {
	if l.session.Code() != "" {
		http.Redirect(w, r, "/done", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/auth", http.StatusFound)
}

// authorize issues a fresh correlation token and redirects to the provider.
func (l *CallbackListener) authorize(w http.ResponseWriter, r *http.Request) {
	if l.session.Code() != "" {
		http.Redirect(w, r, "/done", http.StatusFound)
		return
	}

	state, err := l.session.Rotate(l.generate)
	if err != nil {
		l.fail(err)
		http.Error(w, "Failed to start authorization", http.StatusInternalServerError)
		return
	}

	authURL, err := l.auth.AuthorizationURL(state)
	if err != nil {
		l.fail(err)
		http.Error(w, "Failed to build authorization URL", http.StatusInternalServerError)
		return
	}

	l.logger.Debug("redirecting to provider")
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (l *CallbackListener) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := q.Get("state")

	if l.session.Code() != "" {
		http.Error(w, errAlreadyCaptured.Error(), http.StatusConflict)
		return
	}

	if !l.session.Matches(state) {
		l.fail(fmt.Errorf("%w: callback state does not match the active authorization request", shared.ErrProtocolViolation))
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	if providerErr := q.Get("error"); providerErr != "" {
		l.fail(fmt.Errorf("%w: provider returned %q", shared.ErrAuthFailed, providerErr))
		http.Error(w, "Authorization failed: "+providerErr, http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		l.fail(fmt.Errorf("%w: callback carried neither code nor error", shared.ErrProtocolViolation))
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	if err := l.session.Capture(state, code); err != nil {
		if errors.Is(err, errAlreadyCaptured) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		l.fail(err)
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	l.logger.Debug("authorization code received")
	http.Redirect(w, r, "/done", http.StatusFound)
}

// done persists configuration once and hands the code to the waiting caller.
func (l *CallbackListener) done(w http.ResponseWriter, r *http.Request) {
	code := l.session.Code()
	if code == "" {
		http.Redirect(w, r, "/auth", http.StatusFound)
		return
	}

	l.persistOnce.Do(func() {
		l.persistErr = l.persist()
		if l.persistErr != nil {
			l.fail(fmt.Errorf("failed to persist configuration: %w", l.persistErr))
			return
		}
		l.Send(CallbackResult{Code: code})
	})

	if l.persistErr != nil {
		http.Error(w, "Failed to save configuration", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, completionPage, CompletionMessage)
}

func (l *CallbackListener) fail(err error) {
	l.logger.Error("handshake aborted", "error", err)
	l.Send(CallbackResult{err: err})
}

// Send sends the handshake result through the channel (only once).
func (l *CallbackListener) Send(result CallbackResult) {
	l.once.Do(func() {
		l.resultChan <- result
		close(l.resultChan)
	})
}

// Result returns the result channel for receiving handshake completion.
//
// Channel will receive exactly one result and then be closed.
func (l *CallbackListener) Result() <-chan CallbackResult {
	return l.resultChan
}

// Wait blocks until the handshake finishes, the server stops, or ctx is cancelled.
//
// There is no built-in timeout.
func (l *CallbackListener) Wait(ctx context.Context, serverErrs <-chan error) (string, error) {
	for {
		select {
		case result, ok := <-l.Result():
			if !ok {
				return "", shared.ErrNoAuthorizationCode
			}
			return result.Code, result.Error()
		case err, ok := <-serverErrs:
			if ok && err != nil {
				return "", fmt.Errorf("callback listener failed: %w", err)
			}
			if !ok {
				select {
				case result, ok := <-l.Result():
					if ok {
						return result.Code, result.Error()
					}
				default:
				}
				return "", fmt.Errorf("callback listener stopped: %w", shared.ErrNoAuthorizationCode)
			}
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

const completionPage = `<!DOCTYPE html>
<html>
<head>
    <title>Authorization Complete</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Authorization Complete</h1>
        <p>%s</p>
    </div>
</body>
</html>
`
