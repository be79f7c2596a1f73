package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientOwnerOf(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collections/col:primary/items/7/owner":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"owner":"addr:user"}`)
		case "/collections/col:primary/items/404/owner":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	owner, err := client.OwnerOf(ctx, "col:primary", 7)
	if err != nil {
		t.Fatalf("OwnerOf() error = %v", err)
	}
	if owner != "addr:user" {
		t.Errorf("OwnerOf() = %q, want %q", owner, "addr:user")
	}

	// Unknown item reads as an empty owner, not an error.
	owner, err = client.OwnerOf(ctx, "col:primary", 404)
	if err != nil {
		t.Fatalf("OwnerOf(unknown) error = %v", err)
	}
	if owner != "" {
		t.Errorf("OwnerOf(unknown) = %q, want empty", owner)
	}

	// Unexpected status surfaces as unavailable.
	if _, err := client.OwnerOf(ctx, "col:primary", 500); !errors.Is(err, ErrOracleUnavailable) {
		t.Errorf("OwnerOf(error) error = %v, want ErrOracleUnavailable", err)
	}
}

func TestClientOwnerOfUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // shut down before the call

	client := NewClient(server.URL)
	if _, err := client.OwnerOf(context.Background(), "col:primary", 1); !errors.Is(err, ErrOracleUnavailable) {
		t.Errorf("OwnerOf() against closed server error = %v, want ErrOracleUnavailable", err)
	}
}

func TestStaticOracle(t *testing.T) {
	o := NewStaticOracle()
	ctx := context.Background()

	owner, err := o.OwnerOf(ctx, "col:primary", 1)
	if err != nil {
		t.Fatalf("OwnerOf() error = %v", err)
	}
	if owner != "" {
		t.Errorf("OwnerOf(unknown) = %q, want empty", owner)
	}

	o.SetOwner("col:primary", 1, "addr:user")
	owner, err = o.OwnerOf(ctx, "col:primary", 1)
	if err != nil {
		t.Fatalf("OwnerOf() error = %v", err)
	}
	if owner != "addr:user" {
		t.Errorf("OwnerOf() = %q, want %q", owner, "addr:user")
	}
}
