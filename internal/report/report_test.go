package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/beamly/fastlydash/internal/logger"
	"github.com/beamly/fastlydash/internal/models"
)

func decodeStats(t *testing.T, body string) *models.StatsResponse {
	t.Helper()
	var stats models.StatsResponse
	if err := json.Unmarshal([]byte(body), &stats); err != nil {
		t.Fatalf("decoding stats fixture: %v", err)
	}
	return &stats
}

func assertNoData(t *testing.T, row Row) {
	t.Helper()
	for i, cell := range row.Cells()[1:] {
		if cell != NoData {
			t.Errorf("%s: column %q expected %q, got %q", row.Name, Headers[i+1], NoData, cell)
		}
	}
}

func TestBuild_RoundTrip(t *testing.T) {
	dir := models.NewServiceDirectory([]models.Service{
		{Name: "svc-a", ID: "1"},
		{Name: "svc-b", ID: "2"},
	})
	stats := decodeStats(t, `{"data": {"1": [{"hit_ratio": 0.92, "bandwidth": 2048, "requests": 100,
		"status_2xx": 90, "status_3xx": 5, "status_4xx": 3, "status_5xx": 2}]}}`)

	core, logs := observer.New(zapcore.InfoLevel)
	rep := Build(dir, stats, zap.New(core).Sugar())

	if len(rep.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rep.Rows))
	}

	a := rep.Rows[0]
	want := []string{"svc-a", "92", "2048", "2.0Kb", "100", "90", "5", "3", "2"}
	got := a.Cells()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("svc-a column %q: expected %q, got %q", Headers[i], want[i], got[i])
		}
	}

	b := rep.Rows[1]
	if b.Name != "svc-b" {
		t.Fatalf("expected svc-b second, got %q", b.Name)
	}
	assertNoData(t, b)

	missing := logs.FilterMessage("no stats for service").All()
	if len(missing) != 1 || missing[0].ContextMap()["service"] != "svc-b" {
		t.Errorf("expected one info line for svc-b, got %v", missing)
	}
}

func TestBuild_RowCountMatchesDirectory(t *testing.T) {
	tests := []struct {
		name  string
		dir   []models.Service
		stats string
	}{
		{name: "empty directory", dir: nil, stats: `{"data": {"9": [{"requests": 1}]}}`},
		{name: "no stats", dir: []models.Service{{Name: "a", ID: "1"}, {Name: "b", ID: "2"}}, stats: `{"data": {}}`},
		{name: "extra stats", dir: []models.Service{{Name: "a", ID: "1"}}, stats: `{"data": {"1": [{"requests": 1}], "2": [{"requests": 5}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := models.NewServiceDirectory(tt.dir)
			rep := Build(dir, decodeStats(t, tt.stats), logger.Nop())
			if len(rep.Rows) != dir.Len() {
				t.Fatalf("expected %d rows, got %d", dir.Len(), len(rep.Rows))
			}
		})
	}
}

func TestBuild_ZeroRequests(t *testing.T) {
	dir := models.NewServiceDirectory([]models.Service{{Name: "idle", ID: "1"}})
	stats := decodeStats(t, `{"data": {"1": [{"hit_ratio": null, "bandwidth": 0, "requests": 0,
		"status_2xx": 0, "status_3xx": 0, "status_4xx": 0, "status_5xx": 0}]}}`)

	row := Build(dir, stats, logger.Nop()).Rows[0]

	if row.Requests != Some(0) || row.Bandwidth != Some(0) || row.Data != "0.0b" {
		t.Errorf("expected zero requests and bandwidth to be reported, got %+v", row)
	}
	for _, v := range []Value{row.Status2xx, row.Status3xx, row.Status4xx, row.Status5xx} {
		if v.Valid {
			t.Errorf("expected status classes to be no data, got %+v", row)
		}
	}
	if row.HitRatio.Valid {
		t.Errorf("expected null hit ratio to be no data, got %v", row.HitRatio)
	}
}

func TestBuild_ZeroHitRatioIsData(t *testing.T) {
	dir := models.NewServiceDirectory([]models.Service{{Name: "cold", ID: "1"}})
	stats := decodeStats(t, `{"data": {"1": [{"hit_ratio": 0, "requests": 10, "status_2xx": 10}]}}`)

	row := Build(dir, stats, logger.Nop()).Rows[0]
	if row.HitRatio != Some(0) {
		t.Errorf("expected hit ratio 0, got %v", row.HitRatio)
	}
}

func TestBuild_EmptyRecordListIsNoData(t *testing.T) {
	dir := models.NewServiceDirectory([]models.Service{{Name: "a", ID: "1"}})
	row := Build(dir, decodeStats(t, `{"data": {"1": []}}`), logger.Nop()).Rows[0]
	assertNoData(t, row)
}

func TestBuild_StatusPercentagesBounded(t *testing.T) {
	cases := []string{
		`{"requests": 3, "status_2xx": 1, "status_3xx": 1, "status_4xx": 1, "status_5xx": 0}`,
		`{"requests": 7, "status_2xx": 7}`,
		`{"requests": 1000003, "status_2xx": 999999, "status_3xx": 1, "status_4xx": 1, "status_5xx": 2}`,
		`{"requests": 9, "status_2xx": 2, "status_3xx": 2, "status_4xx": 2, "status_5xx": 3}`,
	}

	for _, rec := range cases {
		dir := models.NewServiceDirectory([]models.Service{{Name: "a", ID: "1"}})
		row := Build(dir, decodeStats(t, `{"data": {"1": [`+rec+`]}}`), logger.Nop()).Rows[0]

		var sum int64
		for _, v := range []Value{row.Status2xx, row.Status3xx, row.Status4xx, row.Status5xx} {
			if !v.Valid || v.N < 0 || v.N > 100 {
				t.Fatalf("%s: percentage out of range: %+v", rec, row)
			}
			sum += v.N
		}
		if sum > 100 {
			t.Errorf("%s: percentages sum to %d", rec, sum)
		}
	}
}

func TestHitRatioPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{in: 0.92, want: 92},
		{in: 0.29, want: 29},
		{in: 0.999, want: 99},
		{in: 1, want: 100},
		{in: 0.005, want: 0},
	}
	for _, tt := range tests {
		if got := hitRatioPercent(tt.in); got != tt.want {
			t.Errorf("hitRatioPercent(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSorted_StableWithNoDataLast(t *testing.T) {
	rep := &Report{Rows: []Row{
		{Name: "none-1"},
		{Name: "high", HitRatio: Some(90)},
		{Name: "tie-1", HitRatio: Some(50)},
		{Name: "none-2"},
		{Name: "low", HitRatio: Some(10)},
		{Name: "tie-2", HitRatio: Some(50)},
	}}

	var names []string
	for _, r := range rep.Sorted() {
		names = append(names, r.Name)
	}

	want := "low,tie-1,tie-2,high,none-1,none-2"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("expected order %s, got %s", want, got)
	}
	if rep.Rows[0].Name != "none-1" {
		t.Error("Sorted must not reorder the report rows")
	}
}

func TestWriteTable(t *testing.T) {
	rep := &Report{Rows: []Row{
		{Name: "svc-high", HitRatio: Some(95), Data: NoData},
		{Name: "svc-none", Data: NoData},
		{Name: "svc-low", HitRatio: Some(12), Data: NoData},
	}}

	var buf bytes.Buffer
	if err := rep.WriteTable(&buf); err != nil {
		t.Fatalf("WriteTable() error = %v", err)
	}
	out := buf.String()

	for _, h := range Headers {
		if !strings.Contains(out, h) {
			t.Errorf("expected header %q in table", h)
		}
	}
	low, high, none := strings.Index(out, "svc-low"), strings.Index(out, "svc-high"), strings.Index(out, "svc-none")
	if !(low < high && high < none) {
		t.Errorf("expected rows sorted by hit ratio, got:\n%s", out)
	}
	if !strings.HasSuffix(out, "Showing 3 services\n") {
		t.Errorf("expected service count footer, got:\n%s", out)
	}
}

func TestRenderHTML(t *testing.T) {
	rows := []Row{
		{Name: "svc-b", ID: "2", Data: NoData},
		{Name: "svc-a <script>", ID: "1", HitRatio: Some(92), Bandwidth: Some(2048), Data: "2.0Kb", Requests: Some(100),
			Status2xx: Some(90), Status3xx: Some(5), Status4xx: Some(3), Status5xx: Some(2)},
	}
	generated := time.Date(2026, 10, 19, 14, 5, 0, 0, time.UTC)

	var buf bytes.Buffer
	if err := RenderHTML(&buf, rows, generated, 24); err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "Generated 14:05 UTC on Monday 19 Oct 2026") {
		t.Error("expected generated timestamp in page")
	}
	if !strings.Contains(out, "Last 24 hours") {
		t.Error("expected lookback window in title")
	}
	if strings.Contains(out, "svc-a <script>") || !strings.Contains(out, "svc-a &lt;script&gt;") {
		t.Error("expected service names to be escaped")
	}
	if strings.Index(out, "svc-b") > strings.Index(out, "svc-a") {
		t.Error("expected rows in given order")
	}
	if !strings.Contains(out, `data-sort="92">92</td>`) || !strings.Contains(out, ">2.0Kb</td>") {
		t.Error("expected metric cells in page")
	}
	if !strings.Contains(out, `id="filter"`) {
		t.Error("expected filter box in page")
	}
}

func TestRowJSON(t *testing.T) {
	row := Row{Name: "svc", ID: "1", HitRatio: Some(0), Data: NoData}
	b, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	out := string(b)
	if !strings.Contains(out, `"hit_ratio":0`) || !strings.Contains(out, `"requests":null`) {
		t.Errorf("unexpected JSON %s", out)
	}
}
