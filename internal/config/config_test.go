package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SCUMFARE_JWT_SECRET", "s3cret")
	t.Setenv("SCUMFARE_AUTH_MODE", "")
	t.Setenv("SCUMFARE_CACHE_TTL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Auth.Mode != AuthModeJWT {
		t.Errorf("Auth.Mode = %q", cfg.Auth.Mode)
	}
	if cfg.Redis.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v", cfg.Redis.CacheTTL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SCUMFARE_AUTH_MODE", "FIREBASE")
	t.Setenv("SCUMFARE_FIREBASE_PROJECT_ID", "scum-bot")
	t.Setenv("SCUMFARE_CACHE_TTL", "30s")
	t.Setenv("SCUMFARE_CORS_ORIGINS", "https://admin.example.com, http://localhost:5173 ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.Mode != AuthModeFirebase || cfg.Firebase.ProjectID != "scum-bot" {
		t.Errorf("auth = %+v firebase = %+v", cfg.Auth, cfg.Firebase)
	}
	if cfg.Redis.CacheTTL != 30*time.Second {
		t.Errorf("CacheTTL = %v", cfg.Redis.CacheTTL)
	}
	if len(cfg.HTTP.CORSOrigins) != 2 || cfg.HTTP.CORSOrigins[1] != "http://localhost:5173" {
		t.Errorf("CORSOrigins = %v", cfg.HTTP.CORSOrigins)
	}
}

func TestLoad_MissingSecrets(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"jwt without secret", map[string]string{"SCUMFARE_AUTH_MODE": "jwt", "SCUMFARE_JWT_SECRET": ""}},
		{"firebase without project", map[string]string{"SCUMFARE_AUTH_MODE": "firebase", "SCUMFARE_FIREBASE_PROJECT_ID": ""}},
		{"unknown mode", map[string]string{"SCUMFARE_AUTH_MODE": "oauth", "SCUMFARE_JWT_SECRET": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("Load() should fail")
			}
		})
	}
}
