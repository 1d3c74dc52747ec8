package ember

import "sync"

// pool holds the sync.Pools backing per-connection Request and Response
// reuse. Each worker borrows one of each at the start of a connection and
// returns both once the response has been written, so steady-state request
// handling allocates neither struct.
type pool struct {
	requestPool  *sync.Pool
	responsePool *sync.Pool
}

func newPool() *pool {
	return &pool{
		requestPool: &sync.Pool{
			New: func() interface{} {
				return &Request{Headers: NewHeaderStore()}
			},
		},
		responsePool: &sync.Pool{
			New: func() interface{} {
				return &Response{Status: 200, Headers: NewHeaderStore()}
			},
		},
	}
}

// Request returns an empty *Request from p.
func (p *pool) Request() *Request {
	return p.requestPool.Get().(*Request)
}

// Response returns an empty *Response from p.
func (p *pool) Response() *Response {
	return p.responsePool.Get().(*Response)
}

// PutRequest resets req and returns it to p.
func (p *pool) PutRequest(req *Request) {
	req.reset()
	p.requestPool.Put(req)
}

// PutResponse resets res and returns it to p.
func (p *pool) PutResponse(res *Response) {
	res.reset()
	p.responsePool.Put(res)
}
