package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("auth = %q", got)
		}
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		if in["input"] != "Grand Azure, Antalya" {
			t.Errorf("input = %q", in["input"])
		}
		vec := make([]float32, Dim)
		vec[0] = 0.5
		json.NewEncoder(w).Encode(map[string]any{"embedding": vec})
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test")
	vec, err := c.GetEmbedding(context.Background(), "Grand Azure, Antalya")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != Dim || vec[0] != 0.5 {
		t.Fatalf("vec len=%d vec[0]=%v", len(vec), vec[0])
	}
}

func TestGetEmbeddingFailsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	vec, err := c.GetEmbedding(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected an error")
	}
	// The zero vector still comes back so callers can persist it.
	if len(vec) != Dim {
		t.Fatalf("vec len = %d, want %d", len(vec), Dim)
	}
	for _, v := range vec {
		if v != 0 {
			t.Fatal("error vector must be all zeros")
		}
	}
}

func TestGetEmbeddingRejectsWrongWidth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{1, 2, 3}})
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	if _, err := c.GetEmbedding(context.Background(), "x"); err == nil {
		t.Fatal("expected an error for a short vector")
	}
}
