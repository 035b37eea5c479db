// Package server exposes the task list over HTTP/JSON.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally, registering "METHOD /path" patterns so that
// path wildcards and 405 responses come from the mux.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// # Task API
//
// [TaskHandler] serves:
//
//	GET    /tasks?page=N
//	POST   /tasks
//	GET    /tasks/{id}
//	PUT    /tasks/{id}
//	POST   /tasks/{id}/toggle
//	DELETE /tasks/{id}
//
// Bodies are form-encoded and bound field by field through the task form, so unknown fields are rejected.
// Responses are JSON. Validation failures return 422 with {"errors": {field: message}}; permission errors 403;
// missing tasks 404; a missing or unknown X-User header 401; clients over the rate limit 429.
//
// # Middleware
//
// [Logging], [Recover], [RateLimit] (token bucket per client) and [RequireUser] (resolves the X-User header
// to a user ID stored in the request context).
package server
