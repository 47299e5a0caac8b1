package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		key      string
		want     string
		wantSent bool
		wantJSON bool
	}{
		{"form value", "name=Coffee&amount=3.5", "amount", "3.5", true, false},
		{"form value trimmed", "name=%20Tea%20", "name", "Tea", true, false},
		{"form empty value is sent", "amount=", "amount", "", true, false},
		{"form missing key", "name=x", "date", "", false, false},
		{"json string", `{"field":"name","value":"Rent"}`, "value", "Rent", true, true},
		{"json number", `{"amount": 12.5}`, "amount", "12.5", true, true},
		{"control characters removed", "name=a%01b", "name", "ab", true, false},
		{"empty body", "", "name", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			p := NewRequestBodyParser(req)
			if err := p.Parse(); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			got, sent := p.Lookup(tt.key)
			if got != tt.want || sent != tt.wantSent {
				t.Errorf("Lookup(%q) = %q, %v; want %q, %v", tt.key, got, sent, tt.want, tt.wantSent)
			}
			if p.IsJSON() != tt.wantJSON {
				t.Errorf("IsJSON() = %v, want %v", p.IsJSON(), tt.wantJSON)
			}
		})
	}
}

func TestRequestBodyParser_BadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
	// second call returns the cached error
	if err := p.Parse(); err == nil {
		t.Fatal("expected cached error")
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", tt.raw)
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		got, err := parseID(req)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseID(%q) = %d, %v; want %d, err=%v", tt.raw, got, err, tt.want, tt.wantErr)
		}
	}
}
