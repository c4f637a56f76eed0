package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "creds.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `{"client_key":"K","client_secret":"S","token_key":"TK","token_secret":"TS"}`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Credentials{ClientKey: "K", ClientSecret: "S", TokenKey: "TK", TokenSecret: "TS"}
	if *c != want {
		t.Errorf("Load() = %+v, want %+v", *c, want)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		missing bool
		wantKey bool
	}{
		{
			name:    "missing file",
			missing: true,
		},
		{
			name:    "invalid json",
			content: `{"client_key": "K",`,
		},
		{
			name:    "missing token secret",
			content: `{"client_key":"K","client_secret":"S","token_key":"TK"}`,
			wantKey: true,
		},
		{
			name:    "empty client key",
			content: `{"client_key":"","client_secret":"S","token_key":"TK","token_secret":"TS"}`,
			wantKey: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "absent.json")
			if !tt.missing {
				path = writeFile(t, tt.content)
			}

			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if errors.Is(err, ErrMissingKey) != tt.wantKey {
				t.Errorf("Load() error = %v, want ErrMissingKey %v", err, tt.wantKey)
			}
		})
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeFile(t, `{"client_key":"K","client_secret":"S","token_key":"TK"}`)
	t.Setenv("FIGSHARE_TOKEN_SECRET", "from-env")
	t.Setenv("FIGSHARE_CLIENT_KEY", "K2")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.TokenSecret != "from-env" {
		t.Errorf("TokenSecret = %q, want %q", c.TokenSecret, "from-env")
	}
	if c.ClientKey != "K2" {
		t.Errorf("ClientKey = %q, want %q", c.ClientKey, "K2")
	}
}
