package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/VinMeld/autopost/internal/api"
	"github.com/VinMeld/autopost/internal/config"
	"github.com/VinMeld/autopost/internal/models"
	"github.com/VinMeld/autopost/internal/session"
	"github.com/VinMeld/autopost/internal/transport"
)

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := NewServer(context.Background(), config.MockAPIConfig{
		Port:         "5001",
		DataDir:      t.TempDir(),
		StorageType:  "local",
		JWTSecret:    "test-secret",
		TokenTTL:     time.Hour,
		SeedEmail:    "alice@example.com",
		SeedPassword: "secret",
	}, nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	ts := httptest.NewServer(srv.Server.Handler)
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestNewServer(t *testing.T) {
	srv, _ := newTestServer(t)
	if srv.Port != ":5001" {
		t.Errorf("Expected port :5001, got %s", srv.Port)
	}

	_, err := NewServer(context.Background(), config.MockAPIConfig{StorageType: "s3"}, nil)
	if err == nil {
		t.Error("Expected error for missing bucket")
	}
}

func login(t *testing.T, ts *httptest.Server, password string) (models.LoginResponse, error) {
	t.Helper()
	c := api.NewClient(ts.URL+APIPrefix, nil, nil)
	resp, err := c.Send(context.Background(), http.MethodPost, transport.LoginPath, api.JSONBody{
		Value: models.LoginRequest{Email: "alice@example.com", Password: password},
	})
	if err != nil {
		return models.LoginResponse{}, err
	}
	var out models.LoginResponse
	err = resp.DecodeJSON(&out)
	return out, err
}

func TestLogin(t *testing.T) {
	_, ts := newTestServer(t)

	if _, err := login(t, ts, "wrong"); !errors.Is(err, api.ErrAuthorizationExpired) {
		t.Errorf("Expected 401 for wrong password, got %v", err)
	}

	tokens, err := login(t, ts, "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if tokens.Token == "" || tokens.RefreshToken == "" {
		t.Errorf("Expected both tokens, got %+v", tokens)
	}
}

func vehicleBody(files ...api.FilePart) api.MultipartBody {
	return api.MultipartBody{
		Fields: []api.Field{
			{Name: "model", Value: "Civic"},
			{Name: "price", Value: "2500000"},
			{Name: "phone", Value: "+92301-1234567"},
			{Name: "city", Value: "Lahore"},
		},
		Files: files,
	}
}

func TestCreateVehicle(t *testing.T) {
	srv, ts := newTestServer(t)
	ctx := context.Background()

	tokens, err := login(t, ts, "secret")
	if err != nil {
		t.Fatal(err)
	}
	store := session.NewMemoryStore(session.TTL{})
	_ = store.Set(ctx, tokens.Token, tokens.RefreshToken)
	c := api.NewClient(ts.URL+APIPrefix, store, nil)

	resp, err := c.Send(ctx, http.MethodPost, transport.VehiclePath, vehicleBody(
		api.FilePart{FieldName: "images", FileName: "front.png", ContentType: "image/png", Data: pngData},
		api.FilePart{FieldName: "images", FileName: "back.png", ContentType: "image/png", Data: pngData},
	))
	if err != nil {
		t.Fatalf("CreateVehicle failed: %v", err)
	}
	if resp.Status != http.StatusCreated {
		t.Errorf("Expected 201, got %d", resp.Status)
	}

	var listing models.Listing
	if err := resp.DecodeJSON(&listing); err != nil {
		t.Fatal(err)
	}
	if listing.Owner != "alice@example.com" || listing.Model != "Civic" || len(listing.Images) != 2 {
		t.Errorf("Unexpected listing: %+v", listing)
	}
	if listing.Images[0].FileName != "front.png" || listing.Images[0].ContentType != "image/png" {
		t.Errorf("Unexpected image metadata: %+v", listing.Images[0])
	}

	stored, ok := srv.Storage.GetListing(ctx, listing.ID)
	if !ok || len(stored.Images) != 2 {
		t.Fatal("Listing not stored")
	}
	if data, err := srv.Storage.GetImage(ctx, stored.Images[1].ID); err != nil || len(data) != len(pngData) {
		t.Errorf("Image not stored: %v", err)
	}

	resp, err = c.Send(ctx, http.MethodGet, transport.VehiclePath, nil)
	if err != nil {
		t.Fatal(err)
	}
	var listings []models.Listing
	_ = json.Unmarshal(resp.Body, &listings)
	if len(listings) != 1 {
		t.Errorf("Expected 1 listing, got %d", len(listings))
	}
}

func TestCreateVehicleRejects(t *testing.T) {
	_, ts := newTestServer(t)
	ctx := context.Background()

	tokens, _ := login(t, ts, "secret")
	store := session.NewMemoryStore(session.TTL{})
	_ = store.Set(ctx, tokens.Token, tokens.RefreshToken)
	authed := api.NewClient(ts.URL+APIPrefix, store, nil)

	png := api.FilePart{FieldName: "images", FileName: "front.png", ContentType: "image/png", Data: pngData}

	_, err := api.NewClient(ts.URL+APIPrefix, nil, nil).Send(ctx, http.MethodPost, transport.VehiclePath, vehicleBody(png))
	if !errors.Is(err, api.ErrAuthorizationExpired) {
		t.Errorf("Expected 401 without token, got %v", err)
	}

	_, err = authed.Send(ctx, http.MethodPost, transport.VehiclePath, vehicleBody())
	if !errors.Is(err, api.ErrServerRejected) || api.ServerMessage(err) == "" {
		t.Errorf("Expected 400 with message for missing images, got %v", err)
	}

	text := api.FilePart{FieldName: "images", FileName: "notes.txt", ContentType: "image/png", Data: []byte("hello")}
	_, err = authed.Send(ctx, http.MethodPost, transport.VehiclePath, vehicleBody(text))
	if api.ServerMessage(err) != "notes.txt is not an image" {
		t.Errorf("Expected non-image rejection, got %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	srv, ts := newTestServer(t)
	ctx := context.Background()

	issuer := NewTokenIssuer("test-secret", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, err := issuer.Issue("alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := srv.Handler.Tokens.Verify(stale); err == nil {
		t.Error("Expected expired token rejected")
	}

	store := session.NewMemoryStore(session.TTL{})
	_ = store.Set(ctx, stale, "refresh")
	_, err = api.NewClient(ts.URL+APIPrefix, store, nil).Send(ctx, http.MethodPost, transport.VehiclePath, vehicleBody())
	if !errors.Is(err, api.ErrAuthorizationExpired) {
		t.Errorf("Expected 401 for expired token, got %v", err)
	}

	forged, _ := NewTokenIssuer("other-secret", time.Hour).Issue("alice@example.com")
	if _, err := srv.Handler.Tokens.Verify(forged); err == nil {
		t.Error("Expected forged token rejected")
	}
}

func TestPing(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + APIPrefix + transport.PingPath)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}
