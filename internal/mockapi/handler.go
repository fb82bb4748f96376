package mockapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VinMeld/autopost/internal/logging"
	"github.com/VinMeld/autopost/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

const maxUploadBytes = 32 << 20

type Handler struct {
	Storage *Storage
	Tokens  *TokenIssuer
	Logger  *zap.Logger
}

func NewHandler(storage *Storage, tokens *TokenIssuer, logger *zap.Logger) *Handler {
	return &Handler{Storage: storage, Tokens: tokens, Logger: logging.OrNop(logger)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Message: message})
}

func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

// Login checks the credentials and issues an access token plus an opaque
// refresh token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, ok := h.Storage.Authenticate(r.Context(), req.Email, req.Password)
	if !ok {
		h.Logger.Warn("invalid login", zap.String("email", req.Email))
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := h.Tokens.Issue(user.Email)
	if err != nil {
		h.Logger.Error("failed to issue token", zap.String("email", user.Email), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	h.Logger.Info("user logged in", zap.String("email", user.Email))
	writeJSON(w, http.StatusOK, models.LoginResponse{
		Token:        token,
		RefreshToken: uuid.New().String(),
	})
}

// CreateVehicle accepts a multipart listing: model, price, phone and city
// fields plus one or more images parts.
func (h *Handler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.Logger.Warn("failed to parse listing", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	listing := models.Listing{
		ID:        uuid.New().String(),
		Owner:     ownerFrom(r.Context()),
		Model:     strings.TrimSpace(r.FormValue("model")),
		Price:     strings.TrimSpace(r.FormValue("price")),
		Phone:     strings.TrimSpace(r.FormValue("phone")),
		City:      strings.TrimSpace(r.FormValue("city")),
		CreatedAt: time.Now(),
	}
	files := r.MultipartForm.File["images"]
	if listing.Model == "" || listing.Price == "" || listing.Phone == "" || listing.City == "" || len(files) == 0 {
		writeError(w, http.StatusBadRequest, "All fields are required and at least one image must be uploaded.")
		return
	}

	blobs := make(map[string][]byte, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read image")
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read image")
			return
		}

		mt := mimetype.Detect(data)
		if !strings.HasPrefix(mt.String(), "image/") {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s is not an image", fh.Filename))
			return
		}

		img := models.ImageMetadata{
			ID:          uuid.New().String(),
			FileName:    fh.Filename,
			ContentType: mt.String(),
			Size:        int64(len(data)),
		}
		listing.Images = append(listing.Images, img)
		blobs[img.ID] = data
	}

	if err := h.Storage.SaveListing(r.Context(), listing, blobs); err != nil {
		h.Logger.Error("failed to save listing", zap.String("owner", listing.Owner), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save listing")
		return
	}
	h.Logger.Info("listing created",
		zap.String("id", listing.ID),
		zap.String("owner", listing.Owner),
		zap.Int("images", len(listing.Images)),
	)
	writeJSON(w, http.StatusCreated, listing)
}

// ListVehicles returns the caller's listings.
func (h *Handler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	listings := h.Storage.ListListings(r.Context(), ownerFrom(r.Context()))
	if listings == nil {
		listings = []models.Listing{}
	}
	writeJSON(w, http.StatusOK, listings)
}

// AuthMiddleware requires a valid bearer access token.
func (h *Handler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "invalid authorization format")
			return
		}

		email, err := h.Tokens.Verify(parts[1])
		if err != nil {
			h.Logger.Debug("rejected token", zap.Error(err))
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func ownerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(userContextKey).(string)
	return owner
}
