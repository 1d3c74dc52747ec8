package ember

import (
	"fmt"
	"regexp"
)

// Handler serves a matched request by mutating res in place.
type Handler func(req *Request, res *Response)

// CORSDescriptor configures the CORS behavior for a single route. A nil
// descriptor means the route carries no CORS handling of its own.
type CORSDescriptor struct {
	AllowAllOrigins bool
	AllowedOrigins  []string
	AllowedMethods  []string
	AllowedHeaders  []string
}

// handlerRecord is everything the router stores at a trie leaf for one
// method: the final handler, the route-local middlewares registered
// alongside it (always run after the router's global middlewares, in
// registration order), and an optional CORS descriptor.
type handlerRecord struct {
	handler     Handler
	middlewares []Handler
	cors        *CORSDescriptor
}

// route is one registered (pattern, method) pair, kept for duplicate
// detection at registration time.
type route struct {
	pattern string
	method  string
}

// compiledParam pairs a param node's compiled regex with its
// never-matching flag, resolved once at registration time via the
// router's shared regex cache.
type compiledParam struct {
	re    *regexp.Regexp
	never bool
}

// node is one level of the route trie. Children are stored in three
// buckets tried in a fixed order at lookup time: literal children first,
// then parameter children in registration order, then a single wildcard
// child.
type node struct {
	seg      segment
	literals map[string]*node
	params   []*node
	compiled []*compiledParam // compiled[i] corresponds to params[i]
	wildcard *node

	handlers map[string]*handlerRecord
}

func newNode(seg segment) *node {
	return &node{
		seg:      seg,
		literals: map[string]*node{},
		handlers: map[string]*handlerRecord{},
	}
}

// Router is an ordered trie of compiled route patterns, with method-aware
// dispatch and capture of path parameters in order of appearance.
type Router struct {
	root    *node
	routes  []route
	regexes *regexCache

	global []Handler
}

// NewRouter returns a new, empty Router.
func NewRouter() *Router {
	return &Router{
		root:    newNode(segment{}),
		regexes: newRegexCache(),
	}
}

// Use appends a global middleware, run before every route's local
// middlewares and handler, in registration order.
func (r *Router) Use(mw Handler) {
	r.global = append(r.global, mw)
}

// Global returns the router's registered global middlewares, in
// registration order.
func (r *Router) Global() []Handler {
	return r.global
}

// Register compiles pattern and attaches h (with the optional local
// middlewares and CORS descriptor) to it for every method listed.
// Re-registering the same pattern and method panics, as does a regex
// constraint that fails to compile (an unclosed '[' is not rejected by
// itself; its remainder is used as the regex source), both of which are
// programmer errors that should surface immediately at startup rather
// than fail silently on the first matching request.
func (r *Router) Register(
	pattern string,
	h Handler,
	methods []string,
	cors *CORSDescriptor,
	middlewares ...Handler,
) {
	if len(methods) == 0 {
		panic("ember: Register requires at least one method")
	}
	if h == nil {
		panic("ember: Register requires a non-nil handler")
	}

	segs := compilePath(pattern)

	for _, method := range methods {
		for _, existing := range r.routes {
			if existing.method == method && existing.pattern == pattern {
				panic(fmt.Sprintf(
					"ember: route [%s %s] is already registered",
					method, pattern,
				))
			}
		}

		cn := r.root
		for _, seg := range segs {
			cn = r.descend(cn, seg)
		}

		cn.handlers[method] = &handlerRecord{
			handler:     h,
			middlewares: append([]Handler(nil), middlewares...),
			cors:        cors,
		}

		r.routes = append(r.routes, route{pattern: pattern, method: method})
	}
}

// descend walks (or creates) the child of cn matching seg, compiling and
// caching any regex constraint along the way.
func (r *Router) descend(cn *node, seg segment) *node {
	switch seg.kind {
	case literalSegment:
		if child, ok := cn.literals[seg.literal]; ok {
			return child
		}
		child := newNode(seg)
		cn.literals[seg.literal] = child
		return child

	case wildcardSegment:
		if cn.wildcard == nil {
			cn.wildcard = newNode(seg)
		}
		return cn.wildcard

	default: // paramSegment
		for _, child := range cn.params {
			if child.seg.name == seg.name && child.seg.pattern == seg.pattern {
				return child
			}
		}

		child := newNode(seg)

		var cp *compiledParam
		if seg.never {
			cp = &compiledParam{never: true}
		} else {
			re, err := r.regexes.getOrCompile(seg.pattern)
			if err != nil {
				panic(fmt.Sprintf(
					"ember: failed to compile pattern %q for param %q: %v",
					seg.pattern, seg.name, err,
				))
			}
			cp = &compiledParam{re: re}
		}

		cn.params = append(cn.params, child)
		cn.compiled = append(cn.compiled, cp)
		return child
	}
}

// PathParam is one captured path parameter.
type PathParam struct {
	Key   string
	Value string
}

// MatchResult is the outcome of a successful Match: the handler found for
// the matched method, its route-local middlewares and CORS descriptor,
// and the path parameters captured along the way, in order of
// appearance.
type MatchResult struct {
	Handler     Handler
	Middlewares []Handler
	CORS        *CORSDescriptor
	Params      []PathParam
}

// Match looks up the handler registered for method and path. It returns
// *Error of kind NotFound if no route matches the path at all, or of kind
// MethodNotAllowed if the path matches a route but not for this method.
// Lookup is deterministic: at each trie level a literal child is tried
// before any parameter child, which is tried before the wildcard child;
// the first depth-first match wins.
func (r *Router) Match(method, path string) (*MatchResult, error) {
	segs := ExpandPath(path)

	leaf, params, ok := r.walk(r.root, segs, nil)
	if !ok || leaf == nil || len(leaf.handlers) == 0 {
		return nil, newError(NotFound, path)
	}

	rec, ok := leaf.handlers[method]
	if !ok {
		return nil, newError(MethodNotAllowed, method+" "+path)
	}

	return &MatchResult{
		Handler:     rec.handler,
		Middlewares: rec.middlewares,
		CORS:        rec.cors,
		Params:      params,
	}, nil
}

// walk performs the depth-first, priority-ordered trie traversal. It
// returns the leaf node reached, regardless of whether it carries a
// handler for the requested method (Match checks that separately), and
// the parameters captured along the way.
func (r *Router) walk(cn *node, segs []string, params []PathParam) (*node, []PathParam, bool) {
	if len(segs) == 0 {
		if cn == r.root || len(cn.handlers) > 0 {
			return cn, params, true
		}
		return nil, nil, false
	}

	head, rest := segs[0], segs[1:]

	if head == "" {
		// ExpandPath only ever produces an empty component as its final,
		// synthetic trailing-slash marker. It matches exclusively an
		// explicit "/x/"-style literal child; falling through to a param
		// or wildcard child would let a route like "/assets/*" silently
		// capture an empty value for "/assets/" even though the otherwise
		// identical "/assets" (no trailing slash) correctly 404s.
		if child, ok := cn.literals[""]; ok {
			return r.walk(child, rest, params)
		}
		return nil, nil, false
	}

	if child, ok := cn.literals[head]; ok {
		if n, p, ok := r.walk(child, rest, params); ok {
			return n, p, true
		}
	}

	for i, child := range cn.params {
		cp := cn.compiled[i]
		if cp.never {
			continue
		}
		if cp.re != nil && !cp.re.MatchString(head) {
			continue
		}

		withParam := append(append([]PathParam(nil), params...), PathParam{
			Key:   child.seg.name,
			Value: head,
		})

		if n, p, ok := r.walk(child, rest, withParam); ok {
			return n, p, true
		}
	}

	if cn.wildcard != nil {
		tail := head
		for _, s := range rest {
			tail += "/" + s
		}
		withParam := append(append([]PathParam(nil), params...), PathParam{
			Key:   "*",
			Value: tail,
		})
		if len(cn.wildcard.handlers) > 0 {
			return cn.wildcard, withParam, true
		}
	}

	return nil, nil, false
}

// Routes returns every registered (pattern, method) pair, in registration
// order. Mainly useful for diagnostics and tests.
func (r *Router) Routes() []route {
	return r.routes
}
