package middleware

import (
	"encoding/base64"
	"testing"

	"github.com/ebonflux/ember"
	"github.com/stretchr/testify/assert"
)

func validUser(username, password string) bool {
	return username == "alice" && password == "secret"
}

func encodeBasic(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func TestBasicAuthAcceptsValidCredentials(t *testing.T) {
	mw := BasicAuth(validUser)

	req := &ember.Request{Headers: ember.NewHeaderStore()}
	req.Headers.Set("Authorization", encodeBasic("alice", "secret"))
	res := &ember.Response{Status: 200, Headers: ember.NewHeaderStore()}

	mw(req, res)

	assert.Equal(t, 200, res.Status)
	assert.False(t, res.Done)
}

func TestBasicAuthRejectsWrongCredentials(t *testing.T) {
	mw := BasicAuth(validUser)

	req := &ember.Request{Headers: ember.NewHeaderStore()}
	req.Headers.Set("Authorization", encodeBasic("alice", "wrong"))
	res := &ember.Response{Status: 200, Headers: ember.NewHeaderStore()}

	mw(req, res)

	assert.Equal(t, 401, res.Status)
	assert.True(t, res.Done)
	assert.Contains(t, res.Headers.GetFirst("WWW-Authenticate"), "Basic")
}

func TestBasicAuthRejectsMissingHeader(t *testing.T) {
	mw := BasicAuth(validUser)

	req := &ember.Request{Headers: ember.NewHeaderStore()}
	res := &ember.Response{Status: 200, Headers: ember.NewHeaderStore()}

	mw(req, res)

	assert.Equal(t, 401, res.Status)
	assert.True(t, res.Done)
}

func TestBasicAuthRejectsMalformedHeader(t *testing.T) {
	mw := BasicAuth(validUser)

	req := &ember.Request{Headers: ember.NewHeaderStore()}
	req.Headers.Set("Authorization", "Basic not-valid-base64!!")
	res := &ember.Response{Status: 200, Headers: ember.NewHeaderStore()}

	mw(req, res)

	assert.Equal(t, 401, res.Status)
	assert.True(t, res.Done)
}
