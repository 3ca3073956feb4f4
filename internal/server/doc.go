// Package server runs the short-lived local HTTP listener that completes an authorization-code handshake.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] uses
// [http.ServeMux] method patterns; [Middleware] added first runs outermost.
//
// [RequestLogger] logs each request with a generated id and [RateLimit] sheds load with 429s.
//
// # Callback Listener
//
// [CallbackListener] serves four routes:
//   - / : redirects to /done once a code is held, else to /auth
//   - /auth : rotates the correlation token and redirects to the provider
//   - /callback : checks state, then stores the code or reports the provider error
//   - /done : persists configuration once and hands the code to the caller
//
// The listener owns its [HandshakeSession]. Codes and fatal errors (state mismatch, provider
// error, malformed callback) travel to the caller over a single-use channel; handlers never exit
// the process. [Serve] and [Shutdown] manage the [http.Server] around it.
package server
