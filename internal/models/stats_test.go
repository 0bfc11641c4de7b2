package models

import (
	"encoding/json"
	"testing"
)

func TestNewServiceDirectory_KeepsOrderAndDedupes(t *testing.T) {
	d := NewServiceDirectory([]Service{
		{Name: "www", ID: "1"},
		{Name: "api", ID: "2"},
		{Name: "www", ID: "3"},
	})

	if d.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", d.Len())
	}
	services := d.Services()
	if services[0].Name != "www" || services[1].Name != "api" {
		t.Fatalf("unexpected order: %+v", services)
	}
	if id, _ := d.ID("www"); id != "3" {
		t.Errorf("expected later ID to win, got %q", id)
	}
	if _, ok := d.ID("missing"); ok {
		t.Error("expected missing name to be absent")
	}
}

func TestNullFloat_Unmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  NullFloat
	}{
		{name: "number", input: `{"hit_ratio": 0.92}`, want: NullFloat{Float64: 0.92, Valid: true}},
		{name: "zero", input: `{"hit_ratio": 0}`, want: NullFloat{Float64: 0, Valid: true}},
		{name: "string", input: `{"hit_ratio": "0.5"}`, want: NullFloat{Float64: 0.5, Valid: true}},
		{name: "null", input: `{"hit_ratio": null}`, want: NullFloat{}},
		{name: "absent", input: `{}`, want: NullFloat{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec MetricRecord
			if err := json.Unmarshal([]byte(tt.input), &rec); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if rec.HitRatio != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, rec.HitRatio)
			}
		})
	}
}

func TestNullFloat_RejectsGarbage(t *testing.T) {
	var rec MetricRecord
	if err := json.Unmarshal([]byte(`{"hit_ratio": "lots"}`), &rec); err == nil {
		t.Fatal("expected error for non-numeric string")
	}
}

func TestStatsResponse_Record(t *testing.T) {
	var stats StatsResponse
	body := `{"status":"success","data":{"1":[{"requests":10}],"2":[]}}`
	if err := json.Unmarshal([]byte(body), &stats); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if rec, ok := stats.Record("1"); !ok || rec.Requests != 10 {
		t.Errorf("expected record for 1, got %+v ok=%v", rec, ok)
	}
	if _, ok := stats.Record("2"); ok {
		t.Error("expected empty record list to report no data")
	}
	if _, ok := stats.Record("3"); ok {
		t.Error("expected missing ID to report no data")
	}

	var nilStats *StatsResponse
	if _, ok := nilStats.Record("1"); ok {
		t.Error("expected nil response to report no data")
	}
}
