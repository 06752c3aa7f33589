package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func realIPProbe(trusted []string) (http.Handler, *string) {
	var seen string
	h := TrustedRealIP(trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Real-IP")
	}))
	return h, &seen
}

func TestTrustedRealIPFromTrustedProxy(t *testing.T) {
	h, seen := realIPProbe([]string{"10.0.0.0/8"})

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:4433"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.5")

	h.ServeHTTP(httptest.NewRecorder(), req)

	if *seen != "203.0.113.9" {
		t.Errorf("X-Real-IP = %q, want first forwarded hop", *seen)
	}
}

func TestTrustedRealIPUntrustedStripsHeader(t *testing.T) {
	h, seen := realIPProbe([]string{"10.0.0.0/8"})

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "198.51.100.7:1234"
	req.Header.Set("X-Real-IP", "1.1.1.1") // spoof attempt

	h.ServeHTTP(httptest.NewRecorder(), req)

	if *seen != "" {
		t.Errorf("X-Real-IP = %q, want stripped for untrusted source", *seen)
	}
}

func TestTrustedRealIPNoProxiesConfigured(t *testing.T) {
	h, seen := realIPProbe(nil)

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "198.51.100.7:1234"
	req.Header.Set("X-Real-IP", "1.1.1.1")

	h.ServeHTTP(httptest.NewRecorder(), req)

	if *seen != "" {
		t.Errorf("X-Real-IP = %q, want stripped when no proxies are trusted", *seen)
	}
}

func TestParseCIDRs(t *testing.T) {
	nets := parseCIDRs([]string{"10.0.0.0/8", "192.168.1.1", "", "garbage"})
	if len(nets) != 2 {
		t.Fatalf("parsed %d networks, want 2 (bare IP accepted, garbage skipped)", len(nets))
	}
}
