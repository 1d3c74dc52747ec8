package ember

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunChainOrder(t *testing.T) {
	var order []string

	global := []Handler{
		func(req *Request, res *Response) { order = append(order, "g1") },
		func(req *Request, res *Response) { order = append(order, "g2") },
	}
	local := []Handler{
		func(req *Request, res *Response) { order = append(order, "l1") },
	}
	handler := func(req *Request, res *Response) { order = append(order, "h") }

	runChain(global, local, handler, &Request{}, &Response{})

	assert.Equal(t, []string{"g1", "g2", "l1", "h"}, order)
}

func TestRunChainAbortsOnDone(t *testing.T) {
	var ran []string

	global := []Handler{
		func(req *Request, res *Response) {
			ran = append(ran, "g1")
			res.Status = 401
			res.Done = true
		},
	}
	local := []Handler{
		func(req *Request, res *Response) { ran = append(ran, "l1") },
	}
	handler := func(req *Request, res *Response) { ran = append(ran, "h") }

	res := &Response{}
	runChain(global, local, handler, &Request{}, res)

	assert.Equal(t, []string{"g1"}, ran)
	assert.Equal(t, 401, res.Status)
}
