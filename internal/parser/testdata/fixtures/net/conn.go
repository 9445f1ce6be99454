package net

type Option func(*Conn)

type Conn struct {
	addr    string
	retries int
}

func NewConn(addr string, opts ...Option) *Conn {
	c := &Conn{addr: addr}
	for _, o := range opts {
		o(c)
	}
	return c
}

func WithRetries(n int) Option { return func(c *Conn) { c.retries = n } }
