package auth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"time"

	ierrors "github.com/tessro/interlude/internal/errors"
)

// CallbackServer receives the authorization redirect for one login
// attempt. It checks the state parameter itself so callers only ever see
// a code or a typed error.
type CallbackServer struct {
	server   *http.Server
	listener net.Listener
	path     string
	state    string
	done     chan callbackOutcome
}

type callbackOutcome struct {
	code string
	err  error
}

// NewCallbackServer listens on addr and accepts the redirect at path.
// Redirects that do not carry state are rejected.
func NewCallbackServer(addr, path, state string) (*CallbackServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, ierrors.Configuration("spotify.redirect_uri", fmt.Errorf("listen on %s: %w", addr, err))
	}

	cs := &CallbackServer{
		listener: listener,
		path:     path,
		state:    state,
		done:     make(chan callbackOutcome, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, cs.handleRedirect)
	cs.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	return cs, nil
}

// Start serves in the background until Shutdown.
func (cs *CallbackServer) Start() {
	go func() {
		if err := cs.server.Serve(cs.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cs.deliver(callbackOutcome{err: fmt.Errorf("callback server: %w", err)})
		}
	}()
}

// Wait returns the authorization code from the first redirect.
func (cs *CallbackServer) Wait(ctx context.Context) (string, error) {
	select {
	case out := <-cs.done:
		return out.code, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ierrors.ErrAuthTimeout
		}
		return "", ctx.Err()
	}
}

// Shutdown stops the server.
func (cs *CallbackServer) Shutdown(ctx context.Context) error {
	return cs.server.Shutdown(ctx)
}

// URL is the address the redirect must reach.
func (cs *CallbackServer) URL() string {
	return "http://" + cs.listener.Addr().String() + cs.path
}

// deliver keeps the first outcome. Browsers retry and prefetch, so later
// redirects are answered but ignored.
func (cs *CallbackServer) deliver(out callbackOutcome) {
	select {
	case cs.done <- out:
	default:
	}
}

func (cs *CallbackServer) handleRedirect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	out := cs.outcome(r)
	cs.deliver(out)

	if out.err != nil {
		writePage(w, http.StatusBadRequest, "Spotify login failed", out.err.Error())
		return
	}
	writePage(w, http.StatusOK, "Spotify connected",
		"interlude can now play bursts on your devices. Close this tab and return to the terminal.")
}

func (cs *CallbackServer) outcome(r *http.Request) callbackOutcome {
	q := r.URL.Query()
	if q.Get("state") != cs.state {
		return callbackOutcome{err: ierrors.ServiceCall("spotify authorize", ierrors.ErrAuthState)}
	}
	if reason := q.Get("error"); reason != "" {
		return callbackOutcome{err: ierrors.ServiceCall("spotify authorize", fmt.Errorf("%w: %s", ierrors.ErrAuthDenied, reason))}
	}
	code := q.Get("code")
	if code == "" {
		return callbackOutcome{err: ierrors.ServiceCall("spotify authorize", errors.New("redirect carried no code"))}
	}
	return callbackOutcome{code: code}
}

func writePage(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html><head><title>%[1]s</title></head>\n<body><h1>%[1]s</h1><p>%[2]s</p></body></html>\n",
		html.EscapeString(title), html.EscapeString(message))
}
