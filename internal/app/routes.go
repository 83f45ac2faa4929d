package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ygrebnov/threadpool/httpserver"
)

const helloFile = "hello.html"

// DefaultSleep is how long GET /sleep holds its worker.
const DefaultSleep = 5 * time.Second

func registerRoutes(s *httpserver.Server, root string, sleep time.Duration) error {
	hello := serveFile(filepath.Join(root, helloFile))

	if err := s.Handle(httpserver.MethodGet, "/", hello); err != nil {
		return err
	}
	if err := s.Handle(httpserver.MethodGet, "/sleep", func() (httpserver.Response, error) {
		time.Sleep(sleep)
		return hello()
	}); err != nil {
		return err
	}
	return s.Handle(httpserver.MethodGet, "/forbidden", func() (httpserver.Response, error) {
		return httpserver.NewResponse(403), nil
	})
}

// serveFile reads path on every request so edits show up without a restart.
func serveFile(path string) httpserver.Handler {
	return func() (httpserver.Response, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return httpserver.Response{}, err
		}
		return httpserver.NewResponse(200).WithContent(string(data)), nil
	}
}
