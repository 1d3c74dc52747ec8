// Package middleware holds optional Handler factories for cross-cutting
// concerns, composed into a router's global or route-local middleware
// chain.
package middleware

import "github.com/ebonflux/ember"

// CORS returns a middleware that sets Access-Control-Allow-* headers per
// desc, for use as a global middleware. A route registered with its own
// CORSDescriptor gets the same behavior automatically from the connection
// driver; this
// wrapper exists for the case where CORS should apply to every route
// uniformly instead.
func CORS(desc *ember.CORSDescriptor) ember.Handler {
	return ember.CORSMiddleware(desc)
}
