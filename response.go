package ember

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
)

// Response is the mutable accumulator a handler and its middlewares build
// up before it is serialized onto the wire. It is created with Status 200
// and an empty body before the middleware chain runs.
type Response struct {
	Status  int
	Headers *HeaderStore
	Body    []byte
	Done    bool

	coffer *coffer // optional, wired in by the server that owns this response
}

// reset clears res for reuse from a pool.
func (res *Response) reset() {
	res.Status = http.StatusOK
	if res.Headers == nil {
		res.Headers = NewHeaderStore()
	} else {
		res.Headers.reset()
	}
	res.Body = nil
	res.Done = false
}

// SetCookie appends c's Set-Cookie header value to res. A cookie with an
// invalid name serializes to "" and is silently dropped.
func (res *Response) SetCookie(c *Cookie) {
	if v := c.String(); v != "" {
		res.Headers.Add("Set-Cookie", v)
	}
}

// WriteString sets res's body to s and its Content-Type to
// "text/plain; charset=utf-8".
func (res *Response) WriteString(s string) {
	res.Headers.Set("Content-Type", "text/plain; charset=utf-8")
	res.Body = []byte(s)
}

// WriteJSON marshals v and sets it as res's body with a
// "application/json; charset=utf-8" Content-Type.
func (res *Response) WriteJSON(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	res.Headers.Set("Content-Type", "application/json; charset=utf-8")
	res.Body = b
	return nil
}

// WriteMsgPack marshals v with MessagePack and sets it as res's body with
// an "application/msgpack" Content-Type.
func (res *Response) WriteMsgPack(v interface{}) error {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}
	res.Headers.Set("Content-Type", "application/msgpack")
	res.Body = b
	return nil
}

// WriteFile reads filename's contents into res's body. If the server
// embedding res has an asset coffer configured, the cached copy (and its
// content type, taken from the file extension or sniffed from the bytes)
// is used instead of reading the file directly; a cache entry that has
// been evicted falls back to a direct read.
func (res *Response) WriteFile(filename string) error {
	if res.coffer != nil {
		a, err := res.coffer.asset(filename)
		if err != nil {
			return err
		}
		if a != nil {
			if b := a.content(); b != nil {
				if res.Headers.GetFirst("Content-Type") == "" {
					res.Headers.Set("Content-Type", a.mimeType)
				}
				res.Body = b
				return nil
			}
		}
	}

	b, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	if res.Headers.GetFirst("Content-Type") == "" {
		res.Headers.Set("Content-Type", sniffContentType(b))
	}
	res.Body = b
	return nil
}

// isInformational reports whether status is a 1xx status.
func isInformational(status int) bool {
	return status >= 100 && status < 200
}

// isNoContent reports whether status is 204.
func isNoContent(status int) bool {
	return status == http.StatusNoContent
}

// is2xxConnect reports whether method is CONNECT and status is 2xx.
func is2xxConnect(method string, status int) bool {
	return status >= 200 && status < 300 && method == http.MethodConnect
}

// shouldSetContentLength reports whether the serialized response for a
// request with the given method must carry a Content-Length header.
func shouldSetContentLength(method string, status int) bool {
	return !isNoContent(status) && !isInformational(status) && !is2xxConnect(method, status)
}

// serialize renders res into its HTTP/1.1 wire form for a request with
// the given method: the status line, each header as a comma-joined
// single line in insertion order, a Content-Length line when applicable,
// the blank-line terminator, then the body.
func serialize(method string, res *Response) []byte {
	var buf bytes.Buffer

	buf.WriteString("HTTP/1.1 ")
	buf.WriteString(strconv.Itoa(res.Status))
	buf.WriteByte(' ')
	buf.WriteString(http.StatusText(res.Status))
	buf.WriteString("\r\n")

	res.Headers.Iter(func(key string, values []string) {
		buf.WriteString(key)
		buf.WriteString(": ")
		buf.WriteString(joinValues(values))
		buf.WriteString("\r\n")
	})

	if shouldSetContentLength(method, res.Status) {
		buf.WriteString("Content-Length: ")
		buf.WriteString(strconv.Itoa(len(res.Body)))
		buf.WriteString("\r\n")
	}

	buf.WriteString("\r\n")

	if len(res.Body) > 0 {
		buf.Write(res.Body)
	}

	return buf.Bytes()
}
