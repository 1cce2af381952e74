package aliascfg

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tripzydevops/hotel-sub000/internal/roomtype"
)

func TestGetAliasTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"aliases":{
			"deniz":   {"code":"SV","name":"Sea View","category":"view"},
			"loft":    {"code":"LFT","name":"Loft","category":"class"},
			"broken":  {"code":"","name":"Broken","category":"class"},
			"weird":   {"code":"WRD","name":"Weird","category":"sideways"}
		}}`))
	}))
	defer srv.Close()

	tbl, err := NewHTTPSource(srv.URL).GetAliasTable(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Aliases) != 2 {
		t.Fatalf("aliases = %d, want 2 (malformed rows skipped)", len(tbl.Aliases))
	}
	if tok := tbl.Aliases["loft"]; tok.Code != "LFT" || tok.Category != roomtype.CatClass {
		t.Fatalf("loft = %+v", tok)
	}
}

func TestGetAliasTableEmptyErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"aliases":{}}`))
	}))
	defer srv.Close()

	if _, err := NewHTTPSource(srv.URL).GetAliasTable(context.Background()); err == nil {
		t.Fatal("expected an error for an empty table")
	}
}

func TestGetAliasTableBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewHTTPSource(srv.URL).GetAliasTable(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
}
