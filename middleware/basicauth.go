package middleware

import (
	"encoding/base64"
	"strings"

	"github.com/ebonflux/ember"
)

// Validator validates a basic-auth username/password pair.
type Validator func(username, password string) bool

const basicAuthScheme = "Basic"

// BasicAuth returns a middleware enforcing HTTP Basic authentication
// against validate. Valid credentials let the chain continue unchanged.
// A missing header, a malformed one, or credentials validate rejects all
// set status 401, set the WWW-Authenticate header browsers need to show
// their login prompt, and mark the response done.
func BasicAuth(validate Validator) ember.Handler {
	return func(req *ember.Request, res *ember.Response) {
		auth := req.Headers.GetFirst("Authorization")

		if strings.HasPrefix(auth, basicAuthScheme+" ") {
			decoded, err := base64.StdEncoding.DecodeString(auth[len(basicAuthScheme)+1:])
			if err == nil {
				cred := string(decoded)
				if i := strings.IndexByte(cred, ':'); i >= 0 {
					if validate(cred[:i], cred[i+1:]) {
						return
					}
				}
			}
		}

		res.Headers.Set("WWW-Authenticate", basicAuthScheme+` realm=Restricted`)
		res.Status = 401
		res.Done = true
	}
}
