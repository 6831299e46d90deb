package gcp

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

type ObjectStorageMode string

const (
	ObjectStorageModeGCS         ObjectStorageMode = "gcs"
	ObjectStorageModeGCSEmulator ObjectStorageMode = "gcs_emulator"
)

var (
	ErrInvalidStorageMode  = errors.New("invalid object storage mode")
	ErrMissingEmulatorHost = errors.New("missing storage emulator host")
	ErrInvalidEmulatorHost = errors.New("invalid storage emulator host")
)

type ObjectStorageConfig struct {
	Mode                  ObjectStorageMode
	EmulatorHost          string
	// Credentials is a service-account JSON document or a path to one. Empty uses ambient credentials.
	Credentials           string
	// CompatibilityFallback is set when emulator mode was inferred from STORAGE_EMULATOR_HOST alone.
	CompatibilityFallback bool
}

func (cfg ObjectStorageConfig) IsEmulatorMode() bool {
	return cfg.Mode == ObjectStorageModeGCSEmulator
}

func (cfg ObjectStorageConfig) ModeSource() string {
	if cfg.CompatibilityFallback {
		return "emulator_host"
	}
	return "object_storage_mode"
}

// ResolveObjectStorageConfig reads OBJECT_STORAGE_MODE and STORAGE_EMULATOR_HOST values.
// An empty mode with an emulator host set resolves to emulator mode.
func ResolveObjectStorageConfig(rawMode, emulatorHost string) (ObjectStorageConfig, error) {
	cfg := ObjectStorageConfig{
		Mode:         ObjectStorageMode(strings.ToLower(strings.TrimSpace(rawMode))),
		EmulatorHost: strings.TrimSpace(emulatorHost),
	}
	if cfg.Mode == "" {
		cfg.Mode = ObjectStorageModeGCS
		if cfg.EmulatorHost != "" {
			cfg.Mode = ObjectStorageModeGCSEmulator
			cfg.CompatibilityFallback = true
		}
	}
	return cfg, ValidateObjectStorageConfig(cfg)
}

func ValidateObjectStorageConfig(cfg ObjectStorageConfig) error {
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		return nil
	case ObjectStorageModeGCSEmulator:
	default:
		return fmt.Errorf("%w: %q (allowed: %q, %q)", ErrInvalidStorageMode, cfg.Mode, ObjectStorageModeGCS, ObjectStorageModeGCSEmulator)
	}
	if cfg.EmulatorHost == "" {
		return fmt.Errorf("%w: mode %q requires STORAGE_EMULATOR_HOST", ErrMissingEmulatorHost, cfg.Mode)
	}
	u, err := url.Parse(cfg.EmulatorHost)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q, want an absolute URL like http://fake-gcs:4443", ErrInvalidEmulatorHost, cfg.EmulatorHost)
	}
	return nil
}
