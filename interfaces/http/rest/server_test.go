package rest

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestServer_StopsOnContextCancel(t *testing.T) {
	s := NewServer("127.0.0.1:0", http.NotFoundHandler(), zap.NewNop())

	workerDone := make(chan struct{})
	s.Go(func(ctx context.Context) error {
		<-ctx.Done()
		close(workerDone)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	<-workerDone
}

func TestServer_WorkerFailureStopsServer(t *testing.T) {
	s := NewServer("127.0.0.1:0", http.NotFoundHandler(), zap.NewNop())
	boom := errors.New("worker failed")
	s.Go(func(context.Context) error { return boom })

	select {
	case err := <-runAsync(s):
		assert.ErrorIs(t, err, boom)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func runAsync(s *Server) <-chan error {
	result := make(chan error, 1)
	go func() { result <- s.Run(context.Background()) }()
	return result
}
