package ember

import "strings"

// CORSMiddleware returns a Handler that applies desc: it always sets Vary:
// Origin, and for a request carrying an Origin header that is allowed by
// desc, sets the Access-Control-Allow-* headers. An OPTIONS preflight
// request additionally gets status 204 and Done set, so the route's own
// handler never runs for it. The connection driver attaches this ahead of a route's
// other middlewares whenever the route was registered with a non-nil
// CORSDescriptor; it is also what middleware.CORS wraps for global use.
func CORSMiddleware(desc *CORSDescriptor) Handler {
	allowedMethods := strings.Join(desc.AllowedMethods, ",")
	allowedHeaders := strings.Join(desc.AllowedHeaders, ",")

	return func(req *Request, res *Response) {
		origin := req.Headers.GetFirst("Origin")
		originSet := req.Headers.Has("Origin")

		res.Headers.Add("Vary", "Origin")

		allowed := ""
		if desc.AllowAllOrigins {
			allowed = "*"
		} else {
			for _, o := range desc.AllowedOrigins {
				if o == origin {
					allowed = o
					break
				}
			}
		}

		if !originSet || allowed == "" {
			return
		}

		res.Headers.Set("Access-Control-Allow-Origin", allowed)
		if allowedMethods != "" {
			res.Headers.Set("Access-Control-Allow-Methods", allowedMethods)
		}
		if allowedHeaders != "" {
			res.Headers.Set("Access-Control-Allow-Headers", allowedHeaders)
		}

		if req.Method == "OPTIONS" {
			res.Status = 204
			res.Done = true
		}
	}
}
