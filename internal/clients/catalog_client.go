// movie-service/internal/clients/catalog_client.go
package clients

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"movie-service/internal/domain"
	catalog "movie-service/internal/grpc"
)

// callTimeout таймаут одного вызова.
const callTimeout = 3 * time.Second

// CatalogClient методы внутреннего API каталога для других сервисов.
type CatalogClient interface {
	CheckMovieExists(ctx context.Context, movieID int64) (bool, error)
	GetMovieInfo(ctx context.Context, movieID int64) (*domain.MovieSummary, error)
	Close() error
}

// catalogGRPCClient реализует CatalogClient с использованием gRPC.
type catalogGRPCClient struct {
	conn   *grpc.ClientConn
	logger *slog.Logger
}

// NewCatalogGRPCClient создает клиент. Соединение устанавливается лениво при первом вызове.
func NewCatalogGRPCClient(addr string, logger *slog.Logger, opts ...grpc.DialOption) (CatalogClient, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog client for %s: %w", addr, err)
	}
	return &catalogGRPCClient{conn: conn, logger: logger}, nil
}

// CheckMovieExists опубликован ли фильм.
func (c *catalogGRPCClient) CheckMovieExists(ctx context.Context, movieID int64) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	out := new(wrapperspb.BoolValue)
	if err := c.conn.Invoke(callCtx, catalog.MethodCheckMovieExists, wrapperspb.Int64(movieID), out); err != nil {
		c.logFailure(ctx, "CheckMovieExists", movieID, err)
		return false, fmt.Errorf("grpc CheckMovieExists failed for movieID %d: %w", movieID, err)
	}
	return out.GetValue(), nil
}

// GetMovieInfo сводка фильма. Для отсутствующего фильма ошибка имеет код NotFound.
func (c *catalogGRPCClient) GetMovieInfo(ctx context.Context, movieID int64) (*domain.MovieSummary, error) {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	out := new(structpb.Struct)
	if err := c.conn.Invoke(callCtx, catalog.MethodGetMovieInfo, wrapperspb.Int64(movieID), out); err != nil {
		c.logFailure(ctx, "GetMovieInfo", movieID, err)
		return nil, fmt.Errorf("grpc GetMovieInfo failed for movieID %d: %w", movieID, err)
	}

	fields := out.GetFields()
	if fields == nil {
		return nil, status.Errorf(codes.NotFound, "movie info not found for ID %d", movieID)
	}
	summary := &domain.MovieSummary{
		ID:    int64(fields["id"].GetNumberValue()),
		Title: fields["title"].GetStringValue(),
		Year:  int(fields["year"].GetNumberValue()),
	}
	if v, ok := fields["middle_star"]; ok {
		star := v.GetNumberValue()
		summary.MiddleStar = &star
	}
	return summary, nil
}

func (c *catalogGRPCClient) logFailure(ctx context.Context, method string, movieID int64, err error) {
	st, _ := status.FromError(err)
	c.logger.ErrorContext(ctx, "Catalog gRPC call failed",
		slog.String("method", method),
		slog.Int64("movie_id", movieID),
		slog.String("code", st.Code().String()),
		slog.String("message", st.Message()))
}

// Close закрывает gRPC соединение.
func (c *catalogGRPCClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
