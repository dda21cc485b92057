package main

import "testing"

func TestParseFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{"empty", "", map[string]any{}},
		{
			name: "mixed",
			raw:  `{"race_date": 20240106, "horse_id": "21100001", "odds": null, "frac": 1.5}`,
			want: map[string]any{"race_date": int64(20240106), "horse_id": "21100001", "odds": nil, "frac": nil},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFields([]byte(tt.raw))
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %#v, want %#v", k, got[k], v)
				}
			}
		})
	}

	if _, err := parseFields([]byte("{")); err == nil {
		t.Error("expected error for truncated JSON")
	}
}
