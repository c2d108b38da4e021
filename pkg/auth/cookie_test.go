package auth

import "testing"

func TestDeriveCookieSettings(t *testing.T) {
	tests := []struct {
		name         string
		baseURL      string
		cookieDomain string
		wantSecure   bool
		wantDomain   string
	}{
		{"localhost http", "http://localhost:8080", "", false, ""},
		{"https host", "https://shop.example.com", "", true, ""},
		{"explicit domain", "https://shop.example.com", ".example.com", true, ".example.com"},
		{"empty url", "", "", true, ""},
		{"invalid url", "://bad", "", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveCookieSettings(tt.baseURL, tt.cookieDomain)
			if got.Secure != tt.wantSecure {
				t.Errorf("Secure = %v, want %v", got.Secure, tt.wantSecure)
			}
			if got.Domain != tt.wantDomain {
				t.Errorf("Domain = %q, want %q", got.Domain, tt.wantDomain)
			}
		})
	}
}
