package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/kbukum/invoicer/testutil"
)

// Component serves a handler on an httptest.Server while started.
type Component struct {
	*testutil.Resource[*httptest.Server]
}

func NewComponent(h http.Handler) *Component {
	return &Component{testutil.NewResource("server-test", testutil.Hooks[*httptest.Server]{
		Open: func(context.Context) (*httptest.Server, error) { return httptest.NewServer(h), nil },
		Close: func(ts *httptest.Server) error {
			ts.Close()
			return nil
		},
		// The handler is stateless; dropping keep-alive connections is all
		// a reset needs.
		Reset: func(_ context.Context, ts *httptest.Server) error {
			ts.CloseClientConnections()
			return nil
		},
	})}
}

// BaseURL is e.g. "http://127.0.0.1:PORT", or "" when not running.
func (c *Component) BaseURL() string {
	if ts, ok := c.Get(); ok {
		return ts.URL
	}
	return ""
}

func (c *Component) Client() *http.Client {
	if ts, ok := c.Get(); ok {
		return ts.Client()
	}
	return http.DefaultClient
}
