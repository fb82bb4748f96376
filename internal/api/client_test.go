package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/VinMeld/autopost/internal/session"
)

func TestSendAttachesBearerToken(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer ts.Close()

	store := session.NewMemoryStore(session.TTL{})
	_ = store.Set(context.Background(), "access-token", "refresh-token")

	c := NewClient(ts.URL, store, nil)
	resp, err := c.Send(context.Background(), http.MethodGet, "/ping", nil)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotAuth != "Bearer access-token" {
		t.Errorf("Expected bearer token, got %q", gotAuth)
	}

	var body map[string]string
	if err := resp.DecodeJSON(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("Unexpected body: %v", body)
	}

	_ = store.Clear(context.Background())
	if _, err := c.Send(context.Background(), http.MethodGet, "/ping", nil); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "" {
		t.Errorf("Expected no Authorization header without a session, got %q", gotAuth)
	}
}

func TestSendClassifiesErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/unauthorized":
			w.WriteHeader(http.StatusUnauthorized)
		case "/rejected":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Price must be positive"}`))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer ts.Close()

	c := NewClient(ts.URL, nil, nil)
	ctx := context.Background()

	_, err := c.Send(ctx, http.MethodPost, "/unauthorized", nil)
	if !errors.Is(err, ErrAuthorizationExpired) {
		t.Errorf("Expected ErrAuthorizationExpired, got %v", err)
	}

	_, err = c.Send(ctx, http.MethodPost, "/rejected", nil)
	if !errors.Is(err, ErrServerRejected) {
		t.Errorf("Expected ErrServerRejected, got %v", err)
	}
	if ServerMessage(err) != "Price must be positive" {
		t.Errorf("Expected server message, got %q", ServerMessage(err))
	}

	_, err = c.Send(ctx, http.MethodPost, "/other", nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if apiErr.Status != http.StatusInternalServerError || apiErr.Message != "" {
		t.Errorf("Unexpected error: %+v", apiErr)
	}
}

func TestSendNetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := NewClient(url, nil, nil).Send(context.Background(), http.MethodGet, "/ping", nil)
	if !errors.Is(err, ErrNetworkFailure) {
		t.Fatalf("Expected ErrNetworkFailure, got %v", err)
	}
	if err.Error() == "" {
		t.Error("Expected a human-readable message")
	}
}

func TestSendMultipart(t *testing.T) {
	type part struct {
		name, filename, contentType, value string
	}
	var parts []part

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mr, err := r.MultipartReader()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			data, _ := io.ReadAll(p)
			parts = append(parts, part{p.FormName(), p.FileName(), p.Header.Get("Content-Type"), string(data)})
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	body := MultipartBody{
		Fields: []Field{{"model", "Civic"}, {"price", "2500000"}},
		Files: []FilePart{
			{FieldName: "images", FileName: "front.jpg", ContentType: "image/jpeg", Data: []byte("one")},
			{FieldName: "images", FileName: `side "2".png`, ContentType: "image/png", Data: []byte("two")},
		},
	}
	if _, err := NewClient(ts.URL, nil, nil).Send(context.Background(), http.MethodPost, "/vehicle", body); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	want := []part{
		{"model", "", "", "Civic"},
		{"price", "", "", "2500000"},
		{"images", "front.jpg", "image/jpeg", "one"},
		{"images", `side "2".png`, "image/png", "two"},
	}
	if len(parts) != len(want) {
		t.Fatalf("Expected %d parts, got %d: %+v", len(want), len(parts), parts)
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Errorf("part %d: got %+v, want %+v", i, parts[i], want[i])
		}
	}
}

func TestSendJSON(t *testing.T) {
	var got map[string]string
	var contentType string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer ts.Close()

	body := JSONBody{Value: map[string]string{"email": "a@b.c"}}
	if _, err := NewClient(ts.URL+"/", nil, nil).Send(context.Background(), http.MethodPost, "/auth/login", body); err != nil {
		t.Fatal(err)
	}
	if contentType != "application/json" {
		t.Errorf("Expected application/json, got %s", contentType)
	}
	if got["email"] != "a@b.c" {
		t.Errorf("Unexpected body: %v", got)
	}
}
