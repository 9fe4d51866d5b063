package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func TestBasicRouter(t *testing.T) {
	t.Run("Handle filters by method", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle("GET", "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "pong")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/ping", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200 for GET, got %d", rec.Code)
		}
		if rec.Body.String() != "pong" {
			t.Errorf("expected body 'pong', got %q", rec.Body.String())
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405 for POST, got %d", rec.Code)
		}
	})

	t.Run("Handler registers all routes", func(t *testing.T) {
		router := NewBasicRouter()
		handler := &multiRouteHandler{routes: []string{"/a", "/b"}}
		router.Handler(handler)

		for _, route := range handler.routes {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", route, nil))
			if rec.Code != http.StatusOK {
				t.Errorf("expected 200 for %s, got %d", route, rec.Code)
			}
		}
	})

	t.Run("middleware applies in order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mw("first"), mw("second"))
		router.Handle("GET", "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

		want := []string{"first", "second", "handler"}
		if len(order) != len(want) {
			t.Fatalf("expected %d calls, got %d", len(want), len(order))
		}
		for i := range want {
			if order[i] != want[i] {
				t.Errorf("call %d: expected %s, got %s", i, want[i], order[i])
			}
		}
	})
}

type multiRouteHandler struct {
	routes []string
}

func (h *multiRouteHandler) Routes() []string { return h.routes }

func (h *multiRouteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// tokenServer returns a test server that answers token exchange requests.
func tokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-token","token_type":"bearer"}`)
	}))
}

func signInTestConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:    "test-client",
		RedirectURL: "http://127.0.0.1/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "http://127.0.0.1/authorize",
			TokenURL: tokenURL,
		},
	}
}

func TestSignInHandler(t *testing.T) {
	t.Run("Routes", func(t *testing.T) {
		handler := NewSignInHandler(signInTestConfig(""), "state123")
		routes := handler.Routes()
		if len(routes) != 1 || routes[0] != "/callback" {
			t.Errorf("expected routes [/callback], got %v", routes)
		}
	})

	t.Run("valid callback exchanges code", func(t *testing.T) {
		ts := tokenServer(t)
		defer ts.Close()

		handler := NewSignInHandler(signInTestConfig(ts.URL), "state123")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/callback?state=state123&code=abc", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Signed In") {
			t.Error("expected success page in response body")
		}

		result := <-handler.Result()
		if result.Error() != nil {
			t.Fatalf("expected no error, got %v", result.Error())
		}
		if result.Token == nil || result.Token.AccessToken != "test-token" {
			t.Errorf("expected access token 'test-token', got %+v", result.Token)
		}
	})

	t.Run("invalid state rejected", func(t *testing.T) {
		handler := NewSignInHandler(signInTestConfig(""), "state123")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/callback?state=wrong&code=abc", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() == nil {
			t.Error("expected error result for invalid state")
		}
	})

	t.Run("missing code reports provider error", func(t *testing.T) {
		handler := NewSignInHandler(signInTestConfig(""), "state123")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/callback?state=state123&error=access_denied&error_description=nope", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() == nil {
			t.Fatal("expected error result for missing code")
		}
		if !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("expected provider error in result, got %v", result.Error())
		}
	})

	t.Run("second callback rejected", func(t *testing.T) {
		ts := tokenServer(t)
		defer ts.Close()

		handler := NewSignInHandler(signInTestConfig(ts.URL), "state123")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/callback?state=state123&code=abc", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected first callback to succeed, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/callback?state=state123&code=def", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for replayed callback, got %d", rec.Code)
		}
	})
}
