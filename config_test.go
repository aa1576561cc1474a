package goSession

import (
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Audit.Enabled || cfg.Metrics.Enabled {
		t.Fatal("observability must start opt-in")
	}
	if cfg.Handshake.Timeout <= 0 || cfg.Refresh.ExpiryWindow <= 0 {
		t.Fatalf("default durations not positive: %+v", cfg)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero handshake timeout",
			mutate:  func(c *Config) { c.Handshake.Timeout = 0 },
			wantErr: "Handshake Timeout must be > 0",
		},
		{
			name:    "negative expiry window",
			mutate:  func(c *Config) { c.Refresh.ExpiryWindow = -time.Second },
			wantErr: "Refresh ExpiryWindow must be > 0",
		},
		{
			name:    "zero refresh timeout",
			mutate:  func(c *Config) { c.Refresh.Timeout = 0 },
			wantErr: "Refresh Timeout must be > 0",
		},
		{
			name:    "zero store op timeout",
			mutate:  func(c *Config) { c.Store.OpTimeout = 0 },
			wantErr: "Store OpTimeout must be > 0",
		},
		{
			name:    "zero revoke timeout",
			mutate:  func(c *Config) { c.Logout.RevokeTimeout = 0 },
			wantErr: "Logout RevokeTimeout must be > 0",
		},
		{
			name: "audit enabled without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantErr: "Audit BufferSize must be > 0 when Enabled is true",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || err.Error() != tc.wantErr {
				t.Fatalf("Validate() = %v, want %q", err, tc.wantErr)
			}
		})
	}
}
