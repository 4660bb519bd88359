package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParse_RoundTrip(t *testing.T) {
	v := NewVerifier("secret")

	tok, err := v.Sign(Identity{UserID: "u1", Role: RoleAdmin, Instrument: "drums"}, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	id, err := v.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if id.UserID != "u1" || id.Role != RoleAdmin || id.Instrument != "drums" {
		t.Errorf("identity = %+v", id)
	}
	if !id.IsAdmin() {
		t.Error("IsAdmin = false for admin role")
	}
}

func TestParse_WrongSecret(t *testing.T) {
	tok, err := NewVerifier("right").Sign(Identity{UserID: "u1"}, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := NewVerifier("wrong").Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParse_Expired(t *testing.T) {
	v := NewVerifier("secret")
	past := time.Now().Add(-3 * time.Hour)
	v.now = func() time.Time { return past }

	tok, err := v.Sign(Identity{UserID: "u1"}, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	v.now = time.Now
	if _, err := v.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParse_Empty(t *testing.T) {
	if _, err := NewVerifier("secret").Parse("  "); !errors.Is(err, ErrNoToken) {
		t.Errorf("err = %v, want ErrNoToken", err)
	}
}

func TestFromRequest(t *testing.T) {
	v := NewVerifier("secret")
	tok, err := v.Sign(Identity{UserID: "u1", Role: RolePlayer}, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	tests := []struct {
		name string
		url  string
		hdr  [2]string
	}{
		{name: "BearerHeader", url: "/ws", hdr: [2]string{"Authorization", "Bearer " + tok}},
		{name: "CustomHeader", url: "/ws", hdr: [2]string{"X-Jamoveo-Token", tok}},
		{name: "QueryParam", url: "/ws?token=" + tok},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.url, nil)
			if tt.hdr[0] != "" {
				req.Header.Set(tt.hdr[0], tt.hdr[1])
			}
			id, err := v.FromRequest(req)
			if err != nil {
				t.Fatalf("FromRequest: %v", err)
			}
			if id.UserID != "u1" {
				t.Errorf("UserID = %q, want u1", id.UserID)
			}
		})
	}
}

func TestFromRequest_NoToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws", nil)
	if _, err := NewVerifier("secret").FromRequest(req); !errors.Is(err, ErrNoToken) {
		t.Errorf("err = %v, want ErrNoToken", err)
	}
}
