package nudge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonalize(t *testing.T) {
	c := DefaultCatalog()
	lookup := func(tt TriggerType) Config {
		cfg, err := c.Lookup(tt)
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name      string
		cfg       Config
		ctx       Context
		wantTitle string
		wantDesc  string // substring
	}{
		{
			name:      "no context keeps defaults",
			cfg:       lookup(TriggerStreak),
			wantTitle: "Amazing 7-Day Streak!",
			wantDesc:  "building great habits",
		},
		{
			name:      "streak days",
			cfg:       lookup(TriggerStreak),
			ctx:       Context{"streakDays": 14},
			wantTitle: "Incredible 14-Day Streak!",
			wantDesc:  "You're on fire!",
		},
		{
			name:      "streak below floor keeps defaults",
			cfg:       lookup(TriggerStreak),
			ctx:       Context{"streakDays": 3},
			wantTitle: "Amazing 7-Day Streak!",
			wantDesc:  "building great habits",
		},
		{
			name:      "single account",
			cfg:       lookup(TriggerSecondAccount),
			ctx:       Context{"accountCount": 1},
			wantTitle: "Ready for Multiple Accounts?",
			wantDesc:  "You currently have 1 account.",
		},
		{
			name:      "several accounts",
			cfg:       lookup(TriggerSecondAccount),
			ctx:       Context{"accountCount": 3.0},
			wantTitle: "Ready for Multiple Accounts?",
			wantDesc:  "You currently have 3 accounts.",
		},
		{
			name:      "export format",
			cfg:       lookup(TriggerExport),
			ctx:       Context{"exportType": "sheets"},
			wantTitle: "Export to Google Sheets",
			wantDesc:  "Download your data in Google Sheets format.",
		},
		{
			name:      "empty export format keeps defaults",
			cfg:       lookup(TriggerExport),
			ctx:       Context{"exportType": ""},
			wantTitle: "Export Your Data",
			wantDesc:  "CSV or Google Sheets",
		},
		{
			name:      "pdf feature",
			cfg:       lookup(TriggerPDFExport),
			ctx:       Context{"featureName": "Monthly Report"},
			wantTitle: "Professional Reports",
			wantDesc:  "reports with Monthly Report and other Pro features",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Personalize(tt.cfg, tt.ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, got.Title)
			assert.Contains(t, got.Description, tt.wantDesc)
		})
	}
}

func TestPersonalizeDoesNotMutateInput(t *testing.T) {
	cfg, _ := DefaultCatalog().Lookup(TriggerStreak)
	orig := cfg.Title
	_, err := Personalize(cfg, Context{"streakDays": 30})
	require.NoError(t, err)
	assert.Equal(t, orig, cfg.Title, "input config is not mutated")
}

func TestPersonalizeRenderErrorKeepsDefaults(t *testing.T) {
	cfg := Config{
		Type:  "custom",
		Title: "Default",
		Variants: []Variant{
			{Requires: []string{"a"}, Title: "{{.b}}"},
		},
	}
	got, err := Personalize(cfg, Context{"a": 1})
	require.Error(t, err, "missing template key")
	assert.Equal(t, "Default", got.Title)
}

func TestValidateVariant(t *testing.T) {
	assert.Error(t, ValidateVariant(Variant{Title: "{{.x"}))
	assert.NoError(t, ValidateVariant(Variant{Title: "{{plural .n \"a\" \"b\"}}"}))
}

func TestFormatName(t *testing.T) {
	for in, want := range map[string]string{"csv": "CSV", "PDF": "PDF", "sheets": "Google Sheets", "xlsx": "XLSX"} {
		assert.Equal(t, want, formatName(in), in)
	}
}
