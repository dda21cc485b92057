package config

import "testing"

func TestPostgresDSN(t *testing.T) {
	tests := []struct {
		name string
		db   DB
		want string
	}{
		{
			name: "url wins",
			db:   DB{DatabaseURL: "postgres://u:p@h/db", DBPass: "ignored"},
			want: "postgres://u:p@h/db",
		},
		{
			name: "fields",
			db:   DB{DBUser: "racefeat", DBPass: "pw", DBHost: "localhost", DBPort: "5432", DBName: "racefeat", DBSSLMode: "disable"},
			want: "postgres://racefeat:pw@localhost:5432/racefeat?sslmode=disable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.db.PostgresDSN(); got != tt.want {
				t.Errorf("PostgresDSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadBuild(t *testing.T) {
	t.Setenv("WORKERS", "8")
	t.Setenv("SLOTS", "3")
	t.Setenv("COLUMNS", " horse_id, prev1_rank ,,")
	t.Setenv("SPLIT_CUTOFF", "2024-06-01")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_PASS", "")

	cfg := LoadBuild()
	if cfg.Workers != 8 || cfg.Slots != 3 {
		t.Errorf("Workers, Slots = %d, %d", cfg.Workers, cfg.Slots)
	}
	if len(cfg.Columns) != 2 || cfg.Columns[0] != "horse_id" || cfg.Columns[1] != "prev1_rank" {
		t.Errorf("Columns = %q", cfg.Columns)
	}
	if cfg.SplitCutoff != "2024-06-01" || cfg.DataDir != "data" {
		t.Errorf("SplitCutoff, DataDir = %q, %q", cfg.SplitCutoff, cfg.DataDir)
	}
	if cfg.Configured() {
		t.Error("database should be unconfigured")
	}
}

func TestSplitTrimmed(t *testing.T) {
	got := splitTrimmed("a.app, www.a.app ,")
	if len(got) != 2 || got[1] != "www.a.app" {
		t.Errorf("splitTrimmed = %q", got)
	}
	if len(splitTrimmed("")) != 0 {
		t.Error("empty input should give no parts")
	}
}
