package tracing

import (
	"context"
	"testing"
)

func TestNewProviderDisabled(t *testing.T) {
	p, err := NewProvider(Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if p.IsEnabled() {
		t.Error("IsEnabled() = true for disabled config")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() on disabled provider error = %v", err)
	}
	if p.Tracer("test") == nil {
		t.Error("Tracer() returned nil for disabled provider")
	}
}

func TestNewProviderValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{
			name: "missing service name",
			cfg: Config{
				Enabled:      true,
				SamplingRate: 1.0,
			},
		},
		{
			name: "sampling rate above one",
			cfg: Config{
				Enabled:      true,
				ServiceName:  "palette-registry",
				SamplingRate: 1.5,
			},
		},
		{
			name: "negative sampling rate",
			cfg: Config{
				Enabled:      true,
				ServiceName:  "palette-registry",
				SamplingRate: -0.1,
			},
		},
		{
			name: "unsupported exporter",
			cfg: Config{
				Enabled:      true,
				ServiceName:  "palette-registry",
				SamplingRate: 1.0,
				ExporterType: "jaeger",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProvider(tt.cfg); err == nil {
				t.Error("NewProvider() error = nil, want validation error")
			}
		})
	}
}
