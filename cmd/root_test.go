package cmd

import "testing"

func TestResolveLogLevel(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{"default", "", "", "info"},
		{"flag wins", "debug", "warn", "debug"},
		{"env fallback", "", "error", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flagLogLevel = tt.flag
			defer func() { flagLogLevel = "" }()
			if tt.env != "" {
				t.Setenv("ADC_LOG_LEVEL", tt.env)
			}
			if got := resolveLogLevel(); got != tt.want {
				t.Errorf("resolveLogLevel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveGateway(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{"default", "http://localhost:8420", "", "http://localhost:8420"},
		{"flag wins", "http://lab-gw:9000", "http://other:1", "http://lab-gw:9000"},
		{"env overrides default", "http://localhost:8420", "http://lab-gw:9000", "http://lab-gw:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flagGateway = tt.flag
			defer func() { flagGateway = "http://localhost:8420" }()
			if tt.env != "" {
				t.Setenv("ADC_GATEWAY_URL", tt.env)
			}
			if got := resolveGateway(); got != tt.want {
				t.Errorf("resolveGateway() = %q, want %q", got, tt.want)
			}
		})
	}
}
