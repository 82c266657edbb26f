package gates

import (
	"strings"
	"testing"
	"time"

	"github.com/abhisek/nudgekit/internal/nudge"
)

func TestStreakMilestones(t *testing.T) {
	tests := []struct {
		current int
		next    int
	}{
		{0, 7},
		{6, 7},
		{7, 14},
		{13, 14},
		{14, 30},
		{30, 60},
		{59, 60},
		{60, 90},
	}
	for _, tt := range tests {
		if got := NextStreakMilestone(tt.current); got != tt.next {
			t.Errorf("NextStreakMilestone(%d) = %d, want %d", tt.current, got, tt.next)
		}
	}

	for days, want := range map[int]bool{1: false, 6: false, 7: true, 8: false, 14: true, 30: true, 45: false, 60: true, 90: true} {
		if got := IsStreakMilestone(days); got != want {
			t.Errorf("IsStreakMilestone(%d) = %v, want %v", days, got, want)
		}
	}
}

func TestStreakTrigger(t *testing.T) {
	req, ok := StreakTrigger(14)
	if !ok {
		t.Fatal("expected a request at a milestone")
	}
	if req.Type != nudge.TriggerStreak || req.Context["streakDays"] != 14 {
		t.Errorf("unexpected request %+v", req)
	}
	if _, ok := StreakTrigger(10); ok {
		t.Error("no request expected between milestones")
	}
}

func TestStreakDays(t *testing.T) {
	loc := time.UTC
	day := func(d, h int) time.Time { return time.Date(2026, 3, d, h, 0, 0, 0, loc) }
	anchor := day(10, 20)

	tests := []struct {
		name     string
		activity []time.Time
		want     int
	}{
		{"none", nil, 0},
		{"today only", []time.Time{day(10, 8)}, 1},
		{"three days", []time.Time{day(8, 23), day(9, 1), day(10, 8)}, 3},
		{"gap breaks streak", []time.Time{day(7, 8), day(9, 8), day(10, 8)}, 2},
		{"not active today", []time.Time{day(8, 8), day(9, 8)}, 0},
		{"duplicates", []time.Time{day(10, 8), day(10, 9), day(9, 8)}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StreakDays(tt.activity, anchor); got != tt.want {
				t.Errorf("StreakDays = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAccountLimit(t *testing.T) {
	limits := map[nudge.Tier]int{
		nudge.TierBase: 1,
		nudge.TierMid:  5,
		nudge.TierTop:  0,
	}
	for tier, want := range limits {
		if got := AccountLimit(tier); got != want {
			t.Errorf("AccountLimit(%s) = %d, want %d", tier, got, want)
		}
	}
}

func TestCheckAddAccount(t *testing.T) {
	tests := []struct {
		tier    nudge.Tier
		count   int
		blocked bool
	}{
		{nudge.TierBase, 0, false},
		{nudge.TierBase, 1, true},
		{nudge.TierMid, 3, false},
		{nudge.TierMid, 4, false},
		{nudge.TierMid, 5, true},
		{nudge.TierTop, 50, false},
	}
	for _, tt := range tests {
		req, blocked := CheckAddAccount(tt.tier, tt.count)
		if blocked != tt.blocked {
			t.Errorf("CheckAddAccount(%s, %d) blocked = %v, want %v", tt.tier, tt.count, blocked, tt.blocked)
			continue
		}
		if blocked && (req.Type != nudge.TriggerSecondAccount || req.Context["accountCount"] != tt.count) {
			t.Errorf("unexpected request %+v", req)
		}
	}
}

func TestCheckExport(t *testing.T) {
	tests := []struct {
		tier    nudge.Tier
		format  ExportFormat
		feature string
		want    nudge.TriggerType // "" means allowed
	}{
		{nudge.TierBase, ExportCSV, "", nudge.TriggerExport},
		{nudge.TierBase, ExportSheets, "", nudge.TriggerExport},
		{nudge.TierBase, ExportPDF, "Monthly Report", nudge.TriggerPDFExport},
		{nudge.TierMid, ExportCSV, "", ""},
		{nudge.TierMid, ExportPDF, "", nudge.TriggerPDFExport},
		{nudge.TierTop, ExportPDF, "", ""},
	}
	for _, tt := range tests {
		req, blocked := CheckExport(tt.tier, tt.format, tt.feature)
		if blocked != (tt.want != "") {
			t.Errorf("CheckExport(%s, %s) blocked = %v", tt.tier, tt.format, blocked)
			continue
		}
		if blocked && req.Type != tt.want {
			t.Errorf("CheckExport(%s, %s) type = %s, want %s", tt.tier, tt.format, req.Type, tt.want)
		}
	}

	req, _ := CheckExport(nudge.TierBase, ExportPDF, "Monthly Report")
	if req.Context["featureName"] != "Monthly Report" {
		t.Errorf("feature name not passed: %+v", req.Context)
	}
	req, _ = CheckExport(nudge.TierBase, ExportPDF, "")
	if _, ok := req.Context["featureName"]; ok {
		t.Error("empty feature name should be omitted")
	}
}

func TestParseExportFormat(t *testing.T) {
	if f, err := ParseExportFormat(" PDF "); err != nil || f != ExportPDF {
		t.Errorf("ParseExportFormat(PDF) = %q, %v", f, err)
	}
	if _, err := ParseExportFormat("xlsx"); err == nil {
		t.Error("expected an error for xlsx")
	}
}

func TestRequestFire(t *testing.T) {
	clock := nudge.NewFakeClock(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	s := nudge.New(t.Context(), nudge.Options{Clock: clock, Tier: nudge.TierBase, Location: time.UTC})
	defer s.Close()

	req, _ := CheckAddAccount(nudge.TierBase, 1)
	req.Fire(s)
	clock.Advance(nudge.DefaultDebounce)

	st := s.State()
	if st.Active == nil || st.Active.Config.Type != nudge.TriggerSecondAccount {
		t.Fatalf("expected the account nudge, got %+v", st.Active)
	}
	if want := "You currently have 1 account."; !strings.Contains(st.Active.Config.Description, want) {
		t.Errorf("description %q missing %q", st.Active.Config.Description, want)
	}
}
