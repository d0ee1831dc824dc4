package chunker

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"defaults", DefaultConfig(), ""},
		{"minimal", Config{MaxChunkSize: 1}, ""},
		{"zero max", Config{MaxChunkSize: 0}, "max_chunk_size"},
		{"negative max", Config{MaxChunkSize: -5}, "max_chunk_size"},
		{"negative overlap", Config{MaxChunkSize: 10, OverlapSize: -1}, "overlap_size"},
		{"overlap equals max", Config{MaxChunkSize: 10, OverlapSize: 10}, "overlap_size"},
		{"overlap above max", Config{MaxChunkSize: 10, OverlapSize: 11}, "overlap_size"},
		{"negative min", Config{MaxChunkSize: 10, MinChunkSize: -1}, "min_chunk_size"},
		{"min equals max", Config{MaxChunkSize: 10, MinChunkSize: 10}, "min_chunk_size"},
		{"overlap just below max", Config{MaxChunkSize: 10, OverlapSize: 9, MinChunkSize: 9}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.field == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error on %s, got nil", tc.field)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if cfgErr.Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, cfgErr.Field)
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Error("expected errors.Is(err, ErrInvalidConfig)")
			}
		})
	}
}

func TestConfigError_Message(t *testing.T) {
	err := Config{MaxChunkSize: 100, OverlapSize: 150}.Validate()
	want := "chunker: overlap_size=150: must be smaller than max_chunk_size 100"
	if err == nil || err.Error() != want {
		t.Errorf("expected %q, got %v", want, err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxChunkSize != 2000 || cfg.OverlapSize != 200 || cfg.MinChunkSize != 50 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
