package api

import "testing"

func TestInitTLS(t *testing.T) {
	tests := []struct {
		name    string
		cert    string
		key     string
		enabled bool
	}{
		{"neither", "", "", false},
		{"only cert", "/path/to/cert.pem", "", false},
		{"only key", "", "/path/to/key.pem", false},
		{"both", "/path/to/cert.pem", "/path/to/key.pem", true},
	}

	t.Run("config with env override", func(t *testing.T) {
		t.Setenv("GAMEMAP_TLS_CERT", "/env/cert.pem")
		t.Setenv("GAMEMAP_TLS_KEY", "")
		t.Cleanup(func() { SetTLSConfigForTest(nil) })

		InitTLS("/cfg/cert.pem", "/cfg/key.pem")
		cfg := GetTLSConfig()
		if cfg == nil || cfg.CertFile != "/env/cert.pem" || cfg.KeyFile != "/cfg/key.pem" {
			t.Errorf("GetTLSConfig = %+v", cfg)
		}
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GAMEMAP_TLS_CERT", tt.cert)
			t.Setenv("GAMEMAP_TLS_KEY", tt.key)
			SetTLSConfigForTest(nil)
			t.Cleanup(func() { SetTLSConfigForTest(nil) })

			InitTLS("", "")
			if IsTLSEnabled() != tt.enabled {
				t.Fatalf("IsTLSEnabled = %v, want %v", IsTLSEnabled(), tt.enabled)
			}
			if !tt.enabled {
				return
			}
			cfg := GetTLSConfig()
			if cfg.CertFile != tt.cert || cfg.KeyFile != tt.key {
				t.Errorf("GetTLSConfig = %+v", cfg)
			}
		})
	}
}

func TestLoadTLSConfig(t *testing.T) {
	t.Cleanup(func() { SetTLSConfigForTest(nil) })

	SetTLSConfigForTest(nil)
	if LoadTLSConfig() != nil {
		t.Error("LoadTLSConfig should return nil when TLS is not enabled")
	}

	SetTLSConfigForTest(&TLSConfig{
		CertFile: "/nonexistent/cert.pem",
		KeyFile:  "/nonexistent/key.pem",
	})
	if LoadTLSConfig() != nil {
		t.Error("LoadTLSConfig should return nil when cert files don't exist")
	}
}
