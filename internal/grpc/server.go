// movie-service/internal/grpc/server.go
package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"movie-service/internal/domain"
	"movie-service/internal/metrics"
	"movie-service/internal/store"
)

// ServiceName полное имя внутреннего сервиса каталога.
const ServiceName = "movie.v1.CatalogInterService"

const (
	MethodCheckMovieExists = "/" + ServiceName + "/CheckMovieExists"
	MethodGetMovieInfo     = "/" + ServiceName + "/GetMovieInfo"
)

// CatalogServer методы внутреннего API каталога. Сообщения: well-known типы
// protobuf, поэтому сгенерированный код не нужен.
type CatalogServer interface {
	CheckMovieExists(context.Context, *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error)
	GetMovieInfo(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
}

// Server реализует CatalogServer поверх хранилища фильмов.
type Server struct {
	store  store.MovieStore
	logger *slog.Logger
}

// NewServer создает новый экземпляр gRPC сервера каталога.
func NewServer(movieStore store.MovieStore, logger *slog.Logger) *Server {
	return &Server{
		store:  movieStore,
		logger: logger,
	}
}

// summaryToStruct преобразует сводку фильма в Struct; middle_star отсутствует, если оценок нет.
func summaryToStruct(s *domain.MovieSummary) (*structpb.Struct, error) {
	fields := map[string]any{
		"id":    float64(s.ID),
		"title": s.Title,
		"year":  float64(s.Year),
	}
	if s.MiddleStar != nil {
		fields["middle_star"] = *s.MiddleStar
	}
	return structpb.NewStruct(fields)
}

// GetMovieInfo сводка опубликованного фильма.
func (s *Server) GetMovieInfo(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	movieID := req.GetValue()
	s.logger.InfoContext(ctx, "gRPC GetMovieInfo called", slog.Int64("movie_id", movieID))

	if movieID <= 0 {
		s.logger.WarnContext(ctx, "gRPC GetMovieInfo called with invalid movie_id", slog.Int64("movie_id", movieID))
		return nil, status.Errorf(codes.InvalidArgument, "movie_id must be positive")
	}

	summary, err := s.store.GetMovieSummary(ctx, movieID)
	if err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			s.logger.WarnContext(ctx, "Movie not found by ID for GetMovieInfo", slog.Int64("movie_id", movieID))
			return nil, status.Errorf(codes.NotFound, "movie not found with ID %d", movieID)
		}
		s.logger.ErrorContext(ctx, "Failed to get movie summary for GetMovieInfo", slog.Int64("movie_id", movieID), slog.String("error", err.Error()))
		return nil, status.Errorf(codes.Internal, "failed to retrieve movie details")
	}

	info, err := summaryToStruct(summary)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode movie info: %v", err)
	}
	return info, nil
}

// CheckMovieExists true только для опубликованных фильмов.
func (s *Server) CheckMovieExists(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error) {
	movieID := req.GetValue()
	s.logger.InfoContext(ctx, "gRPC CheckMovieExists called", slog.Int64("movie_id", movieID))

	if movieID <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "movie_id must be positive")
	}

	if _, err := s.store.GetMovieSummary(ctx, movieID); err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			s.logger.InfoContext(ctx, "Movie does not exist (checked via gRPC)", slog.Int64("movie_id", movieID))
			return wrapperspb.Bool(false), nil
		}
		s.logger.ErrorContext(ctx, "Failed to check movie existence from store", slog.Int64("movie_id", movieID), slog.String("error", err.Error()))
		return nil, status.Errorf(codes.Internal, "failed to check movie existence")
	}
	return wrapperspb.Bool(true), nil
}

func checkMovieExistsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).CheckMovieExists(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodCheckMovieExists}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServer).CheckMovieExists(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func getMovieInfoHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).GetMovieInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetMovieInfo}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServer).GetMovieInfo(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc описание сервиса для grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckMovieExists", Handler: checkMovieExistsHandler},
		{MethodName: "GetMovieInfo", Handler: getMovieInfoHandler},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterCatalogServer регистрирует реализацию на сервере.
func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// MetricsInterceptor считает вызовы по методу и коду ответа.
func MetricsInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	metrics.GRPCRequestsTotal.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
	return resp, err
}

// NewGRPCServer сервер с зарегистрированным каталогом и метриками.
func NewGRPCServer(movieStore store.MovieStore, logger *slog.Logger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(MetricsInterceptor))
	srv := grpc.NewServer(opts...)
	RegisterCatalogServer(srv, NewServer(movieStore, logger))
	return srv
}
