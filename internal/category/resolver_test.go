package category

import (
	"context"
	"strings"
	"testing"
)

type memStore struct {
	records map[string]*Record
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*Record)}
}

func (s *memStore) GetCategory(app string) (*Record, error) {
	rec, ok := s.records[strings.ToLower(app)]
	if !ok {
		return nil, nil
	}
	return rec, nil
}

func (s *memStore) SaveCategory(rec *Record) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.records[strings.ToLower(rec.App)] = rec
	return nil
}

func (s *memStore) ListCategories() ([]*Record, error) {
	var records []*Record
	for _, rec := range s.records {
		records = append(records, rec)
	}
	return records, nil
}

func TestResolve_DefaultTable(t *testing.T) {
	tests := []struct {
		app          string
		wantCategory string
		wantScore    int
	}{
		{"code", "development", 95},
		{"Code.exe", "development", 95},
		{"steam", "entertainment", 10},
		{"obsidian", "productivity", 85},
		{"some-game-launcher", "entertainment", 10},
		{"mysterious-ide-thing", "development", 90},
	}

	for _, tt := range tests {
		t.Run(tt.app, func(t *testing.T) {
			r := NewResolver(newMemStore())
			rec := r.Resolve(tt.app)
			if rec.Category != tt.wantCategory {
				t.Errorf("Resolve(%q).Category = %q, want %q", tt.app, rec.Category, tt.wantCategory)
			}
			if rec.Score != tt.wantScore {
				t.Errorf("Resolve(%q).Score = %d, want %d", tt.app, rec.Score, tt.wantScore)
			}
		})
	}
}

func TestResolve_UnknownQueuesPending(t *testing.T) {
	r := NewResolver(newMemStore())

	rec := r.Resolve("zzxyq")
	if rec.Category != "uncategorized" {
		t.Errorf("Category = %q, want uncategorized", rec.Category)
	}
	if rec.Score != UncategorizedScore {
		t.Errorf("Score = %d, want %d", rec.Score, UncategorizedScore)
	}

	pending := r.PendingApps(BatchSize)
	if len(pending) != 1 || pending[0] != "zzxyq" {
		t.Errorf("PendingApps() = %v, want [zzxyq]", pending)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	r := NewResolver(newMemStore())

	first := r.Resolve("code")
	second := r.Resolve("code")

	if first.Category != second.Category || first.Score != second.Score {
		t.Errorf("repeated resolution differs: %+v vs %+v", first, second)
	}
}

func TestSetUserCategory_ProtectedFromAuto(t *testing.T) {
	store := newMemStore()
	r := NewResolver(store)

	if err := r.SetUserCategory("code", "work", "editor", 100); err != nil {
		t.Fatalf("SetUserCategory() error = %v", err)
	}

	r.applyAuto("code", "entertainment", "", 5)

	rec := r.Resolve("code")
	if rec.Origin != OriginUser {
		t.Errorf("Origin = %q, want user", rec.Origin)
	}
	if rec.Category != "work" || rec.Score != 100 {
		t.Errorf("user record altered by auto pass: %+v", rec)
	}

	stored, _ := store.GetCategory("code")
	if stored == nil || stored.Origin != OriginUser || stored.Category != "work" {
		t.Errorf("persisted record altered by auto pass: %+v", stored)
	}
}

func TestResolver_WarmsCacheFromStore(t *testing.T) {
	store := newMemStore()
	store.records["myapp"] = &Record{App: "myapp", Category: "development", Score: 88, Origin: OriginAuto}

	r := NewResolver(store)
	rec := r.Resolve("myapp")
	if rec.Category != "development" || rec.Score != 88 {
		t.Errorf("expected cached store record, got %+v", rec)
	}
}

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt, system string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.response, g.err
}

func TestCategorizer_Run(t *testing.T) {
	store := newMemStore()
	r := NewResolver(store)
	r.Resolve("zzqtool")

	gen := &fakeGenerator{
		response: `Here you go: {"zzqtool": {"category": "development", "subcategory": "tooling", "productivity_score": 85}}`,
	}
	NewCategorizer(r, gen).Run(context.Background())

	rec := r.Resolve("zzqtool")
	if rec.Category != "development" || rec.Score != 85 {
		t.Errorf("expected categorized record, got %+v", rec)
	}
	if len(r.PendingApps(BatchSize)) != 0 {
		t.Errorf("expected empty pending queue, got %v", r.PendingApps(BatchSize))
	}
}

func TestCategorizer_FailureKeepsPending(t *testing.T) {
	r := NewResolver(newMemStore())
	r.Resolve("zzqtool")

	gen := &fakeGenerator{response: "sorry, I cannot help with that"}
	NewCategorizer(r, gen).Run(context.Background())

	if len(r.PendingApps(BatchSize)) != 1 {
		t.Error("expected app to stay pending after unusable response")
	}
}

func TestCategorizer_BatchLimit(t *testing.T) {
	r := NewResolver(newMemStore())
	for i := 0; i < 25; i++ {
		r.Resolve("unknown" + strings.Repeat("x", i+1))
	}

	apps := r.PendingApps(BatchSize)
	if len(apps) != BatchSize {
		t.Errorf("PendingApps() returned %d apps, want %d", len(apps), BatchSize)
	}
}

func TestParseCategorizations(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr bool
	}{
		{
			name:    "clean JSON",
			input:   `{"a": {"category": "development", "productivity_score": 90}}`,
			wantLen: 1,
		},
		{
			name:    "wrapped JSON",
			input:   "Sure! Here is the mapping:\n```json\n{\"a\": {\"category\": \"system\", \"productivity_score\": 50}}\n```",
			wantLen: 1,
		},
		{
			name:    "no JSON at all",
			input:   "I could not categorize these applications.",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCategorizations(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCategorizations() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && len(got) != tt.wantLen {
				t.Errorf("parseCategorizations() returned %d entries, want %d", len(got), tt.wantLen)
			}
		})
	}
}
