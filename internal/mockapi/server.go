// Package mockapi is a development backend for the listing API. It exists so
// the client can be run and tested end to end; listings are kept in memory
// and photos go through a BlobStore.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/VinMeld/autopost/internal/config"
	"github.com/VinMeld/autopost/internal/logging"
	"github.com/VinMeld/autopost/internal/transport"
)

// APIPrefix is the path all routes are mounted under.
const APIPrefix = "/api"

// Server represents the HTTP server.
type Server struct {
	Port    string
	Storage *Storage
	Handler *Handler
	Server  *http.Server
	logger  *zap.Logger
}

// NewServer builds the backend from cfg. A seed user is registered when
// SeedEmail and SeedPassword are both set.
func NewServer(ctx context.Context, cfg config.MockAPIConfig, logger *zap.Logger) (*Server, error) {
	logger = logging.OrNop(logger)

	var blobStore BlobStore
	if cfg.StorageType == "s3" {
		if cfg.Bucket == "" {
			return nil, errors.New("bucket required for s3 storage")
		}
		logger.Info("using S3 storage", zap.String("bucket", cfg.Bucket))
		s3Store, err := NewS3BlobStore(ctx, cfg.Bucket, cfg.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 blob store: %w", err)
		}
		blobStore = s3Store
	} else {
		if cfg.DataDir == "" {
			return nil, errors.New("data dir required for local storage")
		}
		logger.Info("using local storage", zap.String("dir", cfg.DataDir))
		blobStore = NewLocalBlobStore(cfg.DataDir)
	}

	store, err := NewStorage(cfg.DataDir, blobStore)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	if cfg.SeedEmail != "" && cfg.SeedPassword != "" {
		if err := store.AddUser(ctx, cfg.SeedEmail, cfg.SeedPassword); err != nil && !errors.Is(err, ErrUserExists) {
			return nil, fmt.Errorf("failed to seed user: %w", err)
		}
		logger.Info("seed user ready", zap.String("email", cfg.SeedEmail))
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	h := NewHandler(store, NewTokenIssuer(cfg.JWTSecret, ttl), logger)

	port := cfg.Port
	if port == "" {
		port = transport.DefaultServerPort
	}
	if port[0] != ':' {
		port = ":" + port
	}

	return &Server{
		Port:    port,
		Storage: store,
		Handler: h,
		Server:  &http.Server{Addr: port, Handler: Routes(h), ReadHeaderTimeout: 10 * time.Second},
		logger:  logger,
	}, nil
}

// Routes mounts the handler under APIPrefix.
func Routes(h *Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(APIPrefix+transport.PingPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.Ping(w, r)
		} else {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	mux.HandleFunc(APIPrefix+transport.LoginPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.Login(w, r)
		} else {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	mux.HandleFunc(APIPrefix+transport.VehiclePath, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.AuthMiddleware(h.CreateVehicle)(w, r)
		case http.MethodGet:
			h.AuthMiddleware(h.ListVehicles)(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})
	return mux
}

// Start starts the server.
func (s *Server) Start() error {
	s.logger.Info("server starting", zap.String("addr", s.Server.Addr))
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Server.Shutdown(ctx)
}
