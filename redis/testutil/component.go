package testutil

import (
	"context"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/invoicer/testutil"
)

type server struct {
	mini   *miniredis.Miniredis
	client *goredis.Client
}

// Component runs miniredis and a client connected to it.
type Component struct {
	*testutil.Resource[server]
}

func NewComponent() *Component {
	return &Component{testutil.NewResource("redis-test", testutil.Hooks[server]{
		Open: func(context.Context) (server, error) {
			mini, err := miniredis.Run()
			if err != nil {
				return server{}, err
			}
			return server{mini: mini, client: goredis.NewClient(&goredis.Options{Addr: mini.Addr()})}, nil
		},
		Close: func(s server) error {
			defer s.mini.Close()
			return s.client.Close()
		},
		Reset: func(_ context.Context, s server) error {
			s.mini.FlushAll()
			return nil
		},
		Check: func(ctx context.Context, s server) error {
			return s.client.Ping(ctx).Err()
		},
	})}
}

// Addr is miniredis's host:port, or "" when not running.
func (c *Component) Addr() string {
	if s, ok := c.Get(); ok {
		return s.mini.Addr()
	}
	return ""
}

// Client is nil when not running.
func (c *Component) Client() *goredis.Client {
	s, _ := c.Get()
	return s.client
}
