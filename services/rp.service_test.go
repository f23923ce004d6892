package services

import (
	"testing"

	"github.com/cloudclip/auth/config"
	"github.com/cloudclip/auth/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRPResolver() *RP {
	return &RP{
		Env: &config.Env{
			AllowedOrigins: "https://app.example.com,https://example.com",
		},
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name           string
		explicitOrigin string
		originHeader   string
		forwardedHost  string
		host           string
		explicitRPID   string
		wantOrigin     string
		wantRPID       string
		wantErr        error
	}{
		{
			name:           "explicit origin wins",
			explicitOrigin: "https://app.example.com",
			originHeader:   "https://other.example.com",
			host:           "ignored.example.com",
			wantOrigin:     "https://app.example.com",
			wantRPID:       "app.example.com",
		},
		{
			name:         "origin header",
			originHeader: "https://example.com",
			host:         "ignored.example.com",
			wantOrigin:   "https://example.com",
			wantRPID:     "example.com",
		},
		{
			name:          "forwarded host over host",
			forwardedHost: "app.example.com",
			host:          "internal:8080",
			wantOrigin:    "https://app.example.com",
			wantRPID:      "app.example.com",
		},
		{
			name:       "host fallback",
			host:       "example.com",
			wantOrigin: "https://example.com",
			wantRPID:   "example.com",
		},
		{
			name:       "loopback host gets http",
			host:       "localhost:3000",
			wantOrigin: "http://localhost:3000",
			wantRPID:   "localhost",
		},
		{
			name:           "explicit rp id override",
			explicitOrigin: "https://app.example.com",
			explicitRPID:   "example.com",
			wantOrigin:     "https://app.example.com",
			wantRPID:       "example.com",
		},
		{
			name:           "app origin is kept verbatim",
			explicitOrigin: "android:apk-key-hash:abc123",
			explicitRPID:   "example.com",
			wantOrigin:     "android:apk-key-hash:abc123",
			wantRPID:       "example.com",
		},
		{
			name:    "nothing to resolve from",
			wantErr: errors.ErrOriginUnresolvable,
		},
	}

	rp := testRPResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rpc, err := rp.Resolve(tt.explicitOrigin, tt.originHeader, tt.forwardedHost, tt.host, tt.explicitRPID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantOrigin, rpc.Origin)
			assert.Equal(t, tt.wantRPID, rpc.RPID)
		})
	}
}

func TestAllowed(t *testing.T) {
	rp := testRPResolver()

	assert.NoError(t, rp.Allowed("https://app.example.com"))
	assert.NoError(t, rp.Allowed("https://example.com"))
	assert.NoError(t, rp.Allowed("android:apk-key-hash:abc123"))

	assert.ErrorIs(t, rp.Allowed("https://evil.example.net"), errors.ErrOriginNotAllowed)
	assert.ErrorIs(t, rp.Allowed("http://app.example.com"), errors.ErrOriginNotAllowed)
	assert.ErrorIs(t, rp.Allowed(""), errors.ErrOriginUnresolvable)
}
