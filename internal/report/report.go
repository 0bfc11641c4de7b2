// Package report joins the service directory with the statistics snapshot and
// renders the result as a console table, JSON or an HTML dashboard.
package report

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/beamly/fastlydash/internal/logger"
	"github.com/beamly/fastlydash/internal/models"
)

// NoData is how a missing value is displayed.
const NoData = "-"

// Value is an integer metric that may be absent.
type Value struct {
	N     int64
	Valid bool
}

func Some(n int64) Value { return Value{N: n, Valid: true} }

func (v Value) String() string {
	if !v.Valid {
		return NoData
	}
	return strconv.FormatInt(v.N, 10)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.N)
}

type Row struct {
	Name      string `json:"name"`
	ID        string `json:"id"`
	HitRatio  Value  `json:"hit_ratio"`
	Bandwidth Value  `json:"bandwidth"`
	Data      string `json:"data"`
	Requests  Value  `json:"requests"`
	Status2xx Value  `json:"20x"`
	Status3xx Value  `json:"30x"`
	Status4xx Value  `json:"40x"`
	Status5xx Value  `json:"50x"`
}

func emptyRow(svc models.Service) Row {
	return Row{Name: svc.Name, ID: svc.ID, Data: NoData}
}

// Cells returns the display values in column order.
func (r Row) Cells() []string {
	return []string{
		r.Name,
		r.HitRatio.String(),
		r.Bandwidth.String(),
		r.Data,
		r.Requests.String(),
		r.Status2xx.String(),
		r.Status3xx.String(),
		r.Status4xx.String(),
		r.Status5xx.String(),
	}
}

var Headers = []string{"Service", "Hit Ratio", "Bandwidth", "Data", "Requests", "% 20x", "% 30x", "% 40x", "% 50x"}

type Report struct {
	Rows []Row
}

// Build produces one row per directory entry, in directory order. Services
// without statistics keep every metric at NoData.
func Build(dir models.ServiceDirectory, stats *models.StatsResponse, log logger.Logger) *Report {
	services := dir.Services()
	rep := &Report{Rows: make([]Row, 0, len(services))}

	for _, svc := range services {
		row := emptyRow(svc)

		rec, ok := stats.Record(svc.ID)
		if !ok {
			log.Infow("no stats for service", "service", svc.Name, "id", svc.ID)
			rep.Rows = append(rep.Rows, row)
			continue
		}

		if rec.HitRatio.Valid {
			row.HitRatio = Some(hitRatioPercent(rec.HitRatio.Float64))
		}
		row.Bandwidth = Some(rec.Bandwidth)
		row.Data = FormatSize(float64(rec.Bandwidth))
		row.Requests = Some(rec.Requests)

		if rec.Requests > 0 {
			row.Status2xx = Some(percent(rec.Status2xx, rec.Requests))
			row.Status3xx = Some(percent(rec.Status3xx, rec.Requests))
			row.Status4xx = Some(percent(rec.Status4xx, rec.Requests))
			row.Status5xx = Some(percent(rec.Status5xx, rec.Requests))
		} else {
			log.Debugw("zero requests, skipping status classes", "service", svc.Name, "id", svc.ID)
		}

		rep.Rows = append(rep.Rows, row)
	}

	return rep
}

// hitRatioPercent truncates ratio*100 toward zero. The epsilon keeps values
// such as 0.29 from landing on 28.999...
func hitRatioPercent(ratio float64) int64 {
	p := ratio * 100
	if p >= 0 {
		return int64(math.Floor(p + 1e-9))
	}
	return int64(math.Ceil(p - 1e-9))
}

func percent(count, total int64) int64 {
	return count * 100 / total
}

// Sorted returns the rows ordered by ascending hit ratio. The sort is stable
// and rows without a hit ratio come last.
func (r *Report) Sorted() []Row {
	rows := make([]Row, len(r.Rows))
	copy(rows, r.Rows)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].HitRatio, rows[j].HitRatio
		switch {
		case a.Valid && b.Valid:
			return a.N < b.N
		case a.Valid:
			return true
		default:
			return false
		}
	})
	return rows
}
