package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/VinMeld/autopost/internal/api"
	"github.com/VinMeld/autopost/internal/app"
	"github.com/VinMeld/autopost/internal/config"
	"github.com/VinMeld/autopost/internal/form"
	"github.com/VinMeld/autopost/internal/mockapi"
	"github.com/VinMeld/autopost/internal/session"
	"github.com/VinMeld/autopost/internal/validation"
)

func writePhoto(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func civicListing(t *testing.T) app.Listing {
	return app.Listing{
		Fields: form.Fields{Model: "Civic", Price: "2500000", Phone: "+92301-1234567", City: "Lahore"},
		Images: []string{writePhoto(t, "front.png"), writePhoto(t, "back.png")},
	}
}

func setSession(t *testing.T, access string) {
	t.Helper()
	store := session.NewFileStore(cfg.Session.Path, session.TTL{})
	if err := store.Set(context.Background(), access, "refresh"); err != nil {
		t.Fatal(err)
	}
}

func TestSubmitCmd(t *testing.T) {
	srv := setupTestConfig(t)
	ctx := context.Background()
	if err := runLogin(ctx, &bytes.Buffer{}, staticCredentials("alice@example.com", "secret")); err != nil {
		t.Fatal(err)
	}

	out := &bytes.Buffer{}
	res, err := runSubmit(ctx, out, civicListing(t), staticCredentials("", ""))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if res.Status != form.Success {
		t.Errorf("Expected success, got %+v", res)
	}
	if !strings.Contains(out.String(), form.MsgSubmitted) {
		t.Errorf("Unexpected output: %s", out.String())
	}

	listings := srv.Storage.ListListings(ctx, "alice@example.com")
	if len(listings) != 1 {
		t.Fatalf("Expected 1 listing, got %d", len(listings))
	}
	l := listings[0]
	if l.Model != "Civic" || l.City != "Lahore" || len(l.Images) != 2 || l.Images[0].FileName != "front.png" {
		t.Errorf("Unexpected listing: %+v", l)
	}
}

func TestSubmitCmdLogsInFirst(t *testing.T) {
	srv := setupTestConfig(t)
	ctx := context.Background()

	out := &bytes.Buffer{}
	res, err := runSubmit(ctx, out, civicListing(t), staticCredentials("alice@example.com", "secret"))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if res.Status != form.Success {
		t.Errorf("Expected success, got %+v", res)
	}
	if !strings.Contains(out.String(), "Logged in as alice@example.com") {
		t.Errorf("Expected login before submission: %s", out.String())
	}
	if len(srv.Storage.ListListings(ctx, "alice@example.com")) != 1 {
		t.Error("Expected listing stored")
	}
}

func TestSubmitCmdExpiredToken(t *testing.T) {
	srv := setupTestConfig(t)
	ctx := context.Background()

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	setSession(t, expired)

	res, err := runSubmit(ctx, &bytes.Buffer{}, civicListing(t), staticCredentials("alice@example.com", "secret"))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if res.Status != form.Success {
		t.Errorf("Expected success after re-login, got %+v", res)
	}
	if storedSession(t).AccessToken == expired {
		t.Error("Expected a fresh token")
	}
	if len(srv.Storage.ListListings(ctx, "alice@example.com")) != 1 {
		t.Error("Expected listing stored")
	}
}

func TestSubmitCmdRejectedToken(t *testing.T) {
	srv := setupTestConfig(t)
	ctx := context.Background()

	forged, err := mockapi.NewTokenIssuer("other-secret", time.Hour).Issue("alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	setSession(t, forged)

	res, err := runSubmit(ctx, &bytes.Buffer{}, civicListing(t), staticCredentials("", ""))
	if !errors.Is(err, api.ErrAuthorizationExpired) {
		t.Errorf("Expected ErrAuthorizationExpired, got %v", err)
	}
	if !errors.Is(err, app.ErrNoCredentials) {
		t.Errorf("Expected ErrNoCredentials, got %v", err)
	}
	if res.Status != form.Error || res.Message != "invalid or expired session" {
		t.Errorf("Unexpected result: %+v", res)
	}
	if creds := storedSession(t); creds.Authenticated() {
		t.Error("Expected session cleared after 401")
	}
	if len(srv.Storage.ListListings(ctx, "alice@example.com")) != 0 {
		t.Error("Expected nothing stored")
	}
}

func TestSubmitCmdInvalidPhone(t *testing.T) {
	srv := setupTestConfig(t)
	ctx := context.Background()
	_ = runLogin(ctx, &bytes.Buffer{}, staticCredentials("alice@example.com", "secret"))

	l := civicListing(t)
	l.Fields.Phone = "03211234567"
	_, err := runSubmit(ctx, &bytes.Buffer{}, l, staticCredentials("", ""))
	if !errors.Is(err, validation.ErrInvalidPhoneFormat) {
		t.Errorf("Expected InvalidPhoneFormat, got %v", err)
	}
	if len(srv.Storage.ListListings(ctx, "alice@example.com")) != 0 {
		t.Error("Expected nothing stored")
	}
}

func TestSubmitCmdTooManyImages(t *testing.T) {
	setupTestConfig(t)
	ctx := context.Background()
	_ = runLogin(ctx, &bytes.Buffer{}, staticCredentials("alice@example.com", "secret"))

	l := civicListing(t)
	l.MaxImages = 1
	_, err := runSubmit(ctx, &bytes.Buffer{}, l, staticCredentials("", ""))
	if !errors.Is(err, validation.ErrTooManyImages) {
		t.Errorf("Expected TooManyImages, got %v", err)
	}
	if err != nil && err.Error() != "You can only upload up to 1 images." {
		t.Errorf("Unexpected message: %v", err)
	}
}

func TestSubmitCmdAddCity(t *testing.T) {
	srv := setupTestConfig(t)
	ctx := context.Background()
	_ = runLogin(ctx, &bytes.Buffer{}, staticCredentials("alice@example.com", "secret"))

	l := civicListing(t)
	l.Fields.City = "Quetta"
	if _, err := runSubmit(ctx, &bytes.Buffer{}, l, staticCredentials("", "")); !errors.Is(err, validation.ErrUnknownCity) {
		t.Errorf("Expected UnknownCity, got %v", err)
	}

	l.AddCities = []string{"Quetta"}
	if _, err := runSubmit(ctx, &bytes.Buffer{}, l, staticCredentials("", "")); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	listings := srv.Storage.ListListings(ctx, "alice@example.com")
	if len(listings) != 1 || listings[0].City != "Quetta" {
		t.Errorf("Unexpected listings: %+v", listings)
	}
}

func TestSessionCmd(t *testing.T) {
	setupTestConfig(t)
	ctx := context.Background()

	out := &bytes.Buffer{}
	if err := runSession(ctx, out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Access token:  none") {
		t.Errorf("Unexpected output: %s", out.String())
	}

	_ = runLogin(ctx, &bytes.Buffer{}, staticCredentials("alice@example.com", "secret"))
	out.Reset()
	if err := runSession(ctx, out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Access token:  active") || !strings.Contains(out.String(), "Refresh token: present") {
		t.Errorf("Unexpected output: %s", out.String())
	}
}

func TestPingCmd(t *testing.T) {
	setupTestConfig(t)
	out := &bytes.Buffer{}
	if err := runPing(context.Background(), out); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if !strings.Contains(out.String(), "Pong!") {
		t.Errorf("Unexpected output: %s", out.String())
	}

	cfg.API.BaseURL = "http://127.0.0.1:1"
	if err := runPing(context.Background(), &bytes.Buffer{}); !errors.Is(err, api.ErrNetworkFailure) {
		t.Errorf("Expected network failure, got %v", err)
	}
}

func TestConfigCmds(t *testing.T) {
	setupTestConfig(t)
	cfg.Session.RedisPassword = "hunter2"
	cfg.MockAPI.JWTSecret = "dev-secret"

	out := &bytes.Buffer{}
	if err := showConfig(out, cfg); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "hunter2") || strings.Contains(out.String(), "dev-secret") {
		t.Errorf("Expected secrets masked: %s", out.String())
	}
	var shown config.Config
	if err := json.Unmarshal(out.Bytes(), &shown); err != nil {
		t.Fatalf("Expected JSON output: %v", err)
	}
	if shown.API.BaseURL != cfg.API.BaseURL {
		t.Errorf("Expected base URL %s, got %s", cfg.API.BaseURL, shown.API.BaseURL)
	}
	if cfg.Session.RedisPassword != "hunter2" {
		t.Error("showConfig must not modify the live config")
	}

	path, err := ConfigPath()
	if err != nil || path != cfgFile {
		t.Errorf("Expected %s, got %s (%v)", cfgFile, path, err)
	}
}
