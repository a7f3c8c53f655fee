// Package services implements the client side of the Dhun Jam admin API.
//
// # Transport
//
// [APIService] issues raw JSON requests. [APIService.WithToken] wraps the client transport in an
// [oauth2.Transport] with a static token source so every request carries the session bearer token.
// An optional [rate.Limiter] throttles outgoing calls.
//
// # Admin endpoints
//
// [AdminService] implements [AdminAPI]:
//   - POST /admin/login  : credentials in, {id, token} out
//   - GET  /admin/{id}   : [models.AdminSettings]
//   - PUT  /admin/{id}   : {"amount": {...}} only
//
// Every response is a {status, data} envelope. A call succeeds only when the HTTP status is 2xx
// and the envelope status is 200.
//
// # Error Handling
//
// Failures are returned as [*APIError], which unwraps to [shared.ErrAPIRequest] (plus
// [shared.ErrNotAuthenticated] for 401/403). [UserMessage] yields the server's ui_err_msg or a fallback.
package services
