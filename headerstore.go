package ember

import "strings"

// singletonHeaders is the fixed set of headers that may carry at most one
// value in a single message. A second insertion of any of these keys fails
// with DuplicateSingleton.
var singletonHeaders = map[string]bool{
	"Content-Type":   true,
	"Content-Length": true,
	"Host":           true,
}

// isTokenTable is a copy of the RFC 7230 §3.2.6 "tchar" byte table: a 128
// entry lookup used to decide, one byte at a time, whether a header key
// looks like a valid HTTP token and is therefore eligible for
// canonicalization. Keys containing any byte outside this table are used
// as-is.
var isTokenTable = [128]bool{
	'!':  true,
	'#':  true,
	'$':  true,
	'%':  true,
	'&':  true,
	'\'': true,
	'*':  true,
	'+':  true,
	'-':  true,
	'.':  true,
	'0':  true,
	'1':  true,
	'2':  true,
	'3':  true,
	'4':  true,
	'5':  true,
	'6':  true,
	'7':  true,
	'8':  true,
	'9':  true,
	'A':  true,
	'B':  true,
	'C':  true,
	'D':  true,
	'E':  true,
	'F':  true,
	'G':  true,
	'H':  true,
	'I':  true,
	'J':  true,
	'K':  true,
	'L':  true,
	'M':  true,
	'N':  true,
	'O':  true,
	'P':  true,
	'Q':  true,
	'R':  true,
	'S':  true,
	'T':  true,
	'U':  true,
	'W':  true,
	'V':  true,
	'X':  true,
	'Y':  true,
	'Z':  true,
	'^':  true,
	'_':  true,
	'`':  true,
	'a':  true,
	'b':  true,
	'c':  true,
	'd':  true,
	'e':  true,
	'f':  true,
	'g':  true,
	'h':  true,
	'i':  true,
	'j':  true,
	'k':  true,
	'l':  true,
	'm':  true,
	'n':  true,
	'o':  true,
	'p':  true,
	'q':  true,
	'r':  true,
	's':  true,
	't':  true,
	'u':  true,
	'v':  true,
	'w':  true,
	'x':  true,
	'y':  true,
	'z':  true,
	'|':  true,
	'~':  true,
}

// isValidHeaderFieldByte reports whether b is a valid byte in an HTTP
// header field name.
func isValidHeaderFieldByte(b byte) bool {
	return int(b) < len(isTokenTable) && isTokenTable[b]
}

const upperToLower = 'a' - 'A'

// canonicalHeaderKey canonicalizes s into MIME header form: the first
// letter and the letter following each '-' are upper-cased, all other
// ASCII letters are lower-cased. If any byte of s fails the token-byte
// test, s is returned unchanged rather than risk mangling a key that
// doesn't look like a normal header field name.
func canonicalHeaderKey(s string) string {
	for i := 0; i < len(s); i++ {
		if !isValidHeaderFieldByte(s[i]) {
			return s
		}
	}

	upper := true

	needsChange := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if upper && 'a' <= c && c <= 'z' {
			needsChange = true
			break
		}
		if !upper && 'A' <= c && c <= 'Z' {
			needsChange = true
			break
		}
		upper = c == '-'
	}
	if !needsChange {
		return s
	}

	b := []byte(s)
	upper = true
	for i, c := range b {
		if upper && 'a' <= c && c <= 'z' {
			c -= upperToLower
		} else if !upper && 'A' <= c && c <= 'Z' {
			c += upperToLower
		}
		b[i] = c
		upper = c == '-'
	}

	return string(b)
}

// isSingletonHeader reports whether the canonical key k may carry at most
// one value.
func isSingletonHeader(k string) bool {
	return singletonHeaders[k]
}

// HeaderStore is a canonical-key, multi-value HTTP header map. Keys
// crossing the boundary, on both Insert and lookup, are canonicalized via
// canonicalHeaderKey. A fixed set of singleton headers may carry at most
// one value; a second Insert of such a key returns a DuplicateSingleton
// error instead of appending.
type HeaderStore struct {
	values map[string][]string
	order  []string
}

// NewHeaderStore returns a new, empty HeaderStore.
func NewHeaderStore() *HeaderStore {
	return &HeaderStore{values: map[string][]string{}}
}

// reset clears h for reuse from a pool.
func (h *HeaderStore) reset() {
	for k := range h.values {
		delete(h.values, k)
	}
	h.order = h.order[:0]
}

// Insert inserts the value v under the canonicalized key k. If k
// canonicalizes to a singleton header that already carries a value, Insert
// returns a *Error of kind DuplicateSingleton and does not modify h.
func (h *HeaderStore) Insert(k, v string) error {
	ck := canonicalHeaderKey(k)

	existing, ok := h.values[ck]
	if ok {
		if isSingletonHeader(ck) {
			return newError(DuplicateSingleton, ck)
		}
		h.values[ck] = append(existing, v)
		return nil
	}

	h.values[ck] = []string{v}
	h.order = append(h.order, ck)
	return nil
}

// Set replaces all values under the canonicalized key k with v, bypassing
// singleton enforcement. Used by the response builder, where a handler is
// free to overwrite a header it previously set.
func (h *HeaderStore) Set(k, v string) {
	ck := canonicalHeaderKey(k)
	if _, ok := h.values[ck]; !ok {
		h.order = append(h.order, ck)
	}
	h.values[ck] = []string{v}
}

// Add appends v under the canonicalized key k without singleton
// enforcement, for multi-value headers a response deliberately repeats
// (e.g. Vary).
func (h *HeaderStore) Add(k, v string) {
	ck := canonicalHeaderKey(k)
	if _, ok := h.values[ck]; !ok {
		h.order = append(h.order, ck)
	}
	h.values[ck] = append(h.values[ck], v)
}

// GetFirst returns the first value inserted under the canonicalized key k,
// or "" if k has no values.
func (h *HeaderStore) GetFirst(k string) string {
	vs := h.values[canonicalHeaderKey(k)]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// GetAll returns every value inserted under the canonicalized key k, in
// insertion order. The returned slice must not be mutated by the caller.
func (h *HeaderStore) GetAll(k string) []string {
	return h.values[canonicalHeaderKey(k)]
}

// Has reports whether any value has been inserted under the canonicalized
// key k, distinct from GetFirst returning "" since a header can
// legitimately be present with an empty value.
func (h *HeaderStore) Has(k string) bool {
	_, ok := h.values[canonicalHeaderKey(k)]
	return ok
}

// Delete removes every value under the canonicalized key k.
func (h *HeaderStore) Delete(k string) {
	ck := canonicalHeaderKey(k)
	if _, ok := h.values[ck]; !ok {
		return
	}
	delete(h.values, ck)
	for i, o := range h.order {
		if o == ck {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Iter calls fn once per key in insertion order, with every value
// accumulated under that key.
func (h *HeaderStore) Iter(fn func(key string, values []string)) {
	for _, k := range h.order {
		fn(k, h.values[k])
	}
}

// Keys returns the store's keys in insertion order.
func (h *HeaderStore) Keys() []string {
	return h.order
}

// joinValues is a small helper shared by the serializer: comma-joins a
// header's values for the single wire-format line.
func joinValues(vs []string) string {
	return strings.Join(vs, ",")
}
