package gcp

import (
	"errors"
	"testing"
)

func TestResolveObjectStorageConfig(t *testing.T) {
	cases := []struct {
		name     string
		mode     string
		host     string
		want     ObjectStorageMode
		fallback bool
		wantErr  error
	}{
		{name: "default gcs", want: ObjectStorageModeGCS},
		{name: "explicit gcs ignores host", mode: "gcs", host: "http://fake-gcs:4443", want: ObjectStorageModeGCS},
		{name: "explicit emulator", mode: "GCS_EMULATOR", host: "http://fake-gcs:4443", want: ObjectStorageModeGCSEmulator},
		{name: "compatibility fallback", host: "http://fake-gcs:4443", want: ObjectStorageModeGCSEmulator, fallback: true},
		{name: "invalid mode", mode: "local", wantErr: ErrInvalidStorageMode},
		{name: "missing host", mode: "gcs_emulator", wantErr: ErrMissingEmulatorHost},
		{name: "invalid host", mode: "gcs_emulator", host: "fake-gcs:4443", wantErr: ErrInvalidEmulatorHost},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := ResolveObjectStorageConfig(tc.mode, tc.host)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("error: want=%v got=%v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveObjectStorageConfig: %v", err)
			}
			if cfg.Mode != tc.want {
				t.Fatalf("mode: want=%q got=%q", tc.want, cfg.Mode)
			}
			if cfg.CompatibilityFallback != tc.fallback {
				t.Fatalf("compatibility fallback: want=%v got=%v", tc.fallback, cfg.CompatibilityFallback)
			}
		})
	}
}

func TestCredentialOptions(t *testing.T) {
	if got := credentialOptions("  "); got != nil {
		t.Fatalf("blank credentials: want nil got=%v", got)
	}
	if got := credentialOptions(`{"type":"service_account"}`); len(got) != 1 {
		t.Fatalf("inline json: want 1 option got=%d", len(got))
	}
	if got := credentialOptions("/etc/gcp/key.json"); len(got) != 1 {
		t.Fatalf("file path: want 1 option got=%d", len(got))
	}
}
