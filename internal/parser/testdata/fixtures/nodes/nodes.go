package nodes

import (
	"sync"
	"time"

	"example.com/fixtures/net"
)

//autoctor:construct
type Base struct {
	started bool `ctor:"-"`
}

//autoctor:postconstruct
func (b *Base) start() { b.started = true }

// Started reports whether the post-construct hook ran.
func (b *Base) Started() bool { return b.started }

//autoctor:construct
type Leaf struct {
	*Base
	a int
}

//autoctor:construct
type Locked struct {
	sync.Mutex
	Base
	name string
}

type Clock struct {
	now func() time.Time
}

func NewClock() *Clock { return &Clock{now: time.Now} }

//autoctor:construct
type Ticker struct {
	*Clock
	every time.Duration
}

//autoctor:construct
type Wrap struct {
	net.Conn
	net int
}

//autoctor:construct
type Stamped[T any] struct {
	at T
}

//autoctor:construct
type Event struct {
	Stamped[time.Time]
	time string
}
