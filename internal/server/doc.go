// Package server provides HTTP routing, middleware, and the sign-in callback handler.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Sign-In Callback Handler
//
// [SignInHandler] implements the authorization code callback for the hosted
// profile/likes store.
//
// The handler validates the state parameter (CSRF protection), exchanges the
// authorization code for tokens, and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Current Usage
//
// When the user runs `aria login`, a temporary HTTP server starts on localhost,
// handles the callback, and shuts down after receiving the token. The token is
// then persisted to config.toml so later sessions sync likes and listening
// minutes to the signed-in profile.
package server
