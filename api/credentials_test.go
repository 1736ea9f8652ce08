package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUpdatePassword(t *testing.T) {
	var gotMethod, gotPath, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewCredentialClient(srv.URL+"/", "mgmt-token")
	if err := client.UpdatePassword(context.Background(), "auth0|user 1", "newsecret"); err != nil {
		t.Fatalf("update password: %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Fatalf("expected PATCH, got %s", gotMethod)
	}
	if gotPath != "/users/auth0%7Cuser%201" && gotPath != "/users/auth0|user 1" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer mgmt-token" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if !strings.Contains(gotBody, `"password":"newsecret"`) {
		t.Fatalf("unexpected body %q", gotBody)
	}
}

func TestUpdatePasswordProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewCredentialClient(srv.URL, "mgmt-token")
	err := client.UpdatePassword(context.Background(), "user", "newsecret")
	if err == nil {
		t.Fatal("expected error on provider failure")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestUpdatePasswordUnconfigured(t *testing.T) {
	client := NewCredentialClient("", "")
	if err := client.UpdatePassword(context.Background(), "user", "newsecret"); err == nil {
		t.Fatal("expected error when no management API is configured")
	}
}
