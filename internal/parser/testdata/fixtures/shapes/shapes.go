package shapes

import (
	"time"

	"example.com/fixtures/net"
)

//autoctor:construct
type Entity[K comparable] struct {
	id K
}

//autoctor:construct
type Shape struct {
	Entity[int64]
	name  string
	Color string
	scale float64        `ctor:"-"`
	cache map[string]int `gorm:"-"`
	_     struct{}
}

func (s *Shape) setup(opts ...string) {
	s.scale = 1
	s.cache = make(map[string]int, len(opts))
}

//autoctor:construct
type Circle struct {
	*Shape
	radius float64
	Label  string `ctor:"ro"`
}

//autoctor:postconstruct
func (c *Circle) validate(strict bool) {}

// Timer has a post-construct method named on its marker.
//
//autoctor:construct init
type Timer struct {
	d time.Duration
}

func (t *Timer) init() {}

type Plain struct {
	x int
}

//autoctor:construct
type Server struct {
	net.Conn
	port int
}

//autoctor:construct
type Names []string
