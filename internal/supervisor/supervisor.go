// movie-service/internal/supervisor/supervisor.go
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
	"google.golang.org/grpc"
)

// Tree корневой супервизор сервиса. Серверы HTTP и gRPC перезапускаются независимо.
type Tree struct {
	root   *suture.Supervisor
	logger *slog.Logger
}

// NewTree создает дерево; события супервизора пишутся в logger.
func NewTree(logger *slog.Logger, shutdownTimeout time.Duration) *Tree {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	root := suture.New("movie-service", suture.Spec{
		EventHook: (&sutureslog.Handler{Logger: logger}).MustHook(),
		Timeout:   shutdownTimeout,
	})
	return &Tree{root: root, logger: logger}
}

// Add добавляет сервис под надзор.
func (t *Tree) Add(svc suture.Service) suture.ServiceToken {
	return t.root.Add(svc)
}

// Serve блокируется до отмены ctx.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// HTTPServer методы жизненного цикла *http.Server.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPService запускает HTTP-сервер под супервизором.
type HTTPService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

func NewHTTPService(server HTTPServer, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve реализует suture.Service. http.ErrServerClosed не считается ошибкой.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		// исходный ctx уже отменён
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (s *HTTPService) String() string { return "http-server" }

// GRPCService запускает gRPC-сервер. Слушатель создаётся заново при каждом запуске.
type GRPCService struct {
	server *grpc.Server
	listen func() (net.Listener, error)
	logger *slog.Logger
}

// NewGRPCService сервис, слушающий TCP-адрес addr.
func NewGRPCService(server *grpc.Server, addr string, logger *slog.Logger) *GRPCService {
	return NewGRPCServiceWithListener(server, func() (net.Listener, error) {
		return net.Listen("tcp", addr)
	}, logger)
}

func NewGRPCServiceWithListener(server *grpc.Server, listen func() (net.Listener, error), logger *slog.Logger) *GRPCService {
	return &GRPCService{server: server, listen: listen, logger: logger}
}

// Serve реализует suture.Service.
func (s *GRPCService) Serve(ctx context.Context) error {
	lis, err := s.listen()
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC: %w", err)
	}
	s.logger.InfoContext(ctx, "gRPC server starting", slog.String("address", lis.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server failed: %w", err)
		}
		return suture.ErrDoNotRestart
	case <-ctx.Done():
		s.server.GracefulStop()
		<-errCh
		return ctx.Err()
	}
}

func (s *GRPCService) String() string { return "grpc-server" }
