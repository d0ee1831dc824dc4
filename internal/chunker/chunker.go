// Package chunker turns extracted document text into ordered, bounded,
// overlapping fragments for embedding. It performs no I/O and keeps no state:
// Chunk is deterministic and safe to call from any number of goroutines.
package chunker

// Chunk validates cfg and then runs Normalize, Split, InjectOverlap and
// Filter in that order. Invalid configuration fails with a *ConfigError
// before the text is looked at. Blank text yields an empty slice and no error.
func Chunk(text string, cfg Config) ([]string, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	normalized := Normalize(text)
	if normalized == "" {
		return []string{}, nil
	}

	units := SplitUnits(normalized, cfg.MaxChunkSize)
	fragments := InjectOverlapUnits(units, cfg.OverlapSize)
	return Filter(fragments, cfg.MinChunkSize), nil
}
