package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// SignInResult contains the result of a sign-in authorization flow.
type SignInResult struct {
	Token *oauth2.Token
	err   error
}

func (s *SignInResult) Error() error {
	return s.err
}

// SignInHandler handles the authorization code callback from the hosted
// profile/likes store. Implements the Handler interface for registration
// with a Router.
type SignInHandler struct {
	config      *oauth2.Config
	state       string
	resultChan  chan SignInResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewSignInHandler creates a sign-in handler with the given OAuth2 config and state token.
// The state token should be cryptographically random for CSRF protection.
func NewSignInHandler(config *oauth2.Config, state string) *SignInHandler {
	return &SignInHandler{
		config:     config,
		state:      state,
		resultChan: make(chan SignInResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *SignInHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the sign-in callback request.
//
// Validates state parameter, exchanges authorization code for tokens, and sends the result through the result channel.
func (h *SignInHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only handle callback once
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	state := r.URL.Query().Get("state")
	if state != h.state {
		err := fmt.Errorf("invalid state parameter")
		h.Send(SignInResult{err: err})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errParam := r.URL.Query().Get("error")
		errDesc := r.URL.Query().Get("error_description")
		err := fmt.Errorf("sign-in failed: %s - %s", errParam, errDesc)
		h.Send(SignInResult{err: err})
		http.Error(w, "Sign-in failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(context.Background(), code)
	if err != nil {
		h.Send(SignInResult{err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.Send(SignInResult{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Signed In</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #7D56F4; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Signed In</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`)
}

// Send sends the sign-in result through the channel (only once).
func (h *SignInHandler) Send(result SignInResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving sign-in flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *SignInHandler) Result() <-chan SignInResult {
	return h.resultChan
}
