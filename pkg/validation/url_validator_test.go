package validation

import (
	"errors"
	"testing"

	apperrors "github.com/anime-shed/card-number-reader/internal/errors"
)

func TestNewURLValidator(t *testing.T) {
	validator := NewURLValidator()

	expectedSchemes := []string{"http", "https"}
	if len(validator.allowedSchemes) != len(expectedSchemes) {
		t.Fatalf("Expected %d schemes, got %d", len(expectedSchemes), len(validator.allowedSchemes))
	}
	for i, scheme := range expectedSchemes {
		if validator.allowedSchemes[i] != scheme {
			t.Errorf("Expected scheme %s, got %s", scheme, validator.allowedSchemes[i])
		}
	}
	if validator.blockPrivate {
		t.Error("Expected private networks to be allowed by default")
	}
}

func TestNewURLValidatorWithOptions_NormalizesHosts(t *testing.T) {
	validator := NewURLValidatorWithOptions([]string{"https"}, []string{" CDN.Example.com ", "", "*.blob.core.windows.net"})

	if len(validator.allowedHosts) != 2 {
		t.Fatalf("Expected 2 hosts, got %v", validator.allowedHosts)
	}
	if validator.allowedHosts[0] != "cdn.example.com" {
		t.Errorf("Expected lower-cased host, got %q", validator.allowedHosts[0])
	}
}

func TestValidateImageURL(t *testing.T) {
	open := NewURLValidator()
	restricted := NewURLValidatorWithOptions([]string{"https"}, []string{"cdn.example.com", "*.blob.core.windows.net"})
	guarded := NewURLValidator().WithPrivateNetworksBlocked()

	tests := []struct {
		name      string
		validator *URLValidator
		url       string
		wantMsg   string // empty means valid
	}{
		{"Plain https", open, "https://example.com/card.jpg", ""},
		{"Plain http with IP", open, "http://192.168.1.1/card.jpg", ""},
		{"Upper-case scheme", open, "HTTPS://example.com/card.jpg", ""},
		{"Empty", open, "   ", "URL cannot be empty"},
		{"Bad format", open, "://missing-scheme", "Invalid URL format"},
		{"No scheme", open, "not-a-url", "URL scheme not allowed"},
		{"FTP", open, "ftp://example.com/card.jpg", "URL scheme not allowed"},
		{"File", open, "file://local/path/card.jpg", "URL scheme not allowed"},
		{"Data URI", open, "data:image/png;base64,iVBORw0KGgo=", "URL scheme not allowed"},
		{"No host", open, "http:///path", "URL must have a valid host"},

		{"Allowed exact host", restricted, "https://cdn.example.com/card.png", ""},
		{"Allowed host with port", restricted, "https://cdn.example.com:8443/card.png", ""},
		{"Allowed wildcard", restricted, "https://acct.blob.core.windows.net/cards/front.png", ""},
		{"Wildcard needs a subdomain", restricted, "https://.blob.core.windows.net/x.png", "URL host not allowed"},
		{"Foreign host", restricted, "https://evil.example/card.png", "URL host not allowed"},
		{"Lookalike suffix", restricted, "https://cdn.example.com.evil.example/card.png", "URL host not allowed"},
		{"Scheme restricted", restricted, "http://cdn.example.com/card.png", "URL scheme not allowed"},

		{"Public host passes guard", guarded, "https://example.com/card.png", ""},
		{"Localhost", guarded, "http://localhost:8080/card.png", "URL host not allowed"},
		{"Loopback", guarded, "http://127.0.0.1/card.png", "URL host not allowed"},
		{"Private range", guarded, "http://10.1.2.3/card.png", "URL host not allowed"},
		{"Link-local metadata", guarded, "http://169.254.169.254/latest", "URL host not allowed"},
		{"IPv6 loopback", guarded, "http://[::1]/card.png", "URL host not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validator.ValidateImageURL(tt.url)
			if tt.wantMsg == "" {
				if err != nil {
					t.Errorf("ValidateImageURL(%q) unexpected error: %v", tt.url, err)
				}
				return
			}

			var appErr *apperrors.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("ValidateImageURL(%q) = %v, want AppError", tt.url, err)
			}
			if appErr.Type != apperrors.ErrorTypeValidation {
				t.Errorf("Type = %s, want validation", appErr.Type)
			}
			if appErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", appErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestIsHostAllowed(t *testing.T) {
	if !NewURLValidator().isHostAllowed("anything.example") {
		t.Error("Expected any host to be allowed when no restrictions")
	}

	v := NewURLValidatorWithOptions([]string{"https"}, []string{"*.example.com"})
	tests := []struct {
		host string
		want bool
	}{
		{"a.example.com", true},
		{"deep.a.example.com", true},
		{"example.com", false},
		{"badexample.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			if got := v.isHostAllowed(tt.host); got != tt.want {
				t.Errorf("isHostAllowed(%q) = %v, want %v", tt.host, got, tt.want)
			}
		})
	}
}
