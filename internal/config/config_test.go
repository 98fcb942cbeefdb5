package config

import (
	"testing"
)

func TestModesConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  ModesConfig
		wantErr bool
	}{
		{
			name: "valid defaults",
			config: ModesConfig{
				Default:          "coach",
				AnalysisInterval: "1m",
				SyncInterval:     "5m",
			},
			wantErr: false,
		},
		{
			name: "valid ghost mode",
			config: ModesConfig{
				Default:          "ghost",
				AnalysisInterval: "60s",
				SyncInterval:     "300s",
			},
			wantErr: false,
		},
		{
			name: "unknown mode",
			config: ModesConfig{
				Default:          "turbo",
				AnalysisInterval: "1m",
				SyncInterval:     "5m",
			},
			wantErr: true,
		},
		{
			name: "bad analysis interval",
			config: ModesConfig{
				Default:          "chill",
				AnalysisInterval: "once-a-minute",
				SyncInterval:     "5m",
			},
			wantErr: true,
		},
		{
			name: "missing sync interval",
			config: ModesConfig{
				Default:          "study_buddy",
				AnalysisInterval: "1m",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("ModesConfig.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestModesConfig_ApplyDefaults(t *testing.T) {
	config := ModesConfig{}
	config.ApplyDefaults()

	if config.Default != "coach" {
		t.Errorf("Expected Default to be coach, got %s", config.Default)
	}
	if config.AnalysisInterval != "1m" {
		t.Errorf("Expected AnalysisInterval to be 1m, got %s", config.AnalysisInterval)
	}
	if config.SyncInterval != "5m" {
		t.Errorf("Expected SyncInterval to be 5m, got %s", config.SyncInterval)
	}
	if config.DailyCron == "" {
		t.Error("Expected DailyCron to have a default")
	}
}

func TestIsValidMode(t *testing.T) {
	for _, m := range ValidModes {
		if !IsValidMode(m) {
			t.Errorf("Expected %s to be a valid mode", m)
		}
	}
	if IsValidMode("") {
		t.Error("Expected empty string to be invalid")
	}
	if IsValidMode("Coach") {
		t.Error("Expected mode names to be case-sensitive")
	}
}
