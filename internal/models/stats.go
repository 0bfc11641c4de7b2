package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type Service struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// ServiceDirectory maps service names to IDs, in the order the API listed them.
type ServiceDirectory struct {
	entries []Service
	index   map[string]int
}

// NewServiceDirectory builds a directory with unique names. A repeated name
// keeps its first position and takes the later ID.
func NewServiceDirectory(services []Service) ServiceDirectory {
	d := ServiceDirectory{
		entries: make([]Service, 0, len(services)),
		index:   make(map[string]int, len(services)),
	}
	for _, s := range services {
		if i, ok := d.index[s.Name]; ok {
			d.entries[i].ID = s.ID
			continue
		}
		d.index[s.Name] = len(d.entries)
		d.entries = append(d.entries, s)
	}
	return d
}

func (d ServiceDirectory) Len() int { return len(d.entries) }

// Services returns a copy of the entries in directory order.
func (d ServiceDirectory) Services() []Service {
	out := make([]Service, len(d.entries))
	copy(out, d.entries)
	return out
}

func (d ServiceDirectory) ID(name string) (string, bool) {
	i, ok := d.index[name]
	if !ok {
		return "", false
	}
	return d.entries[i].ID, true
}

type StatsResponse struct {
	Status string                    `json:"status"`
	Msg    *string                   `json:"msg"`
	Data   map[string][]MetricRecord `json:"data"`
}

// Record returns the first metric record for a service ID.
func (s *StatsResponse) Record(id string) (MetricRecord, bool) {
	if s == nil {
		return MetricRecord{}, false
	}
	records, ok := s.Data[id]
	if !ok || len(records) == 0 {
		return MetricRecord{}, false
	}
	return records[0], true
}

type MetricRecord struct {
	HitRatio  NullFloat `json:"hit_ratio"`
	Bandwidth int64     `json:"bandwidth"`
	Requests  int64     `json:"requests"`
	Status2xx int64     `json:"status_2xx"`
	Status3xx int64     `json:"status_3xx"`
	Status4xx int64     `json:"status_4xx"`
	Status5xx int64     `json:"status_5xx"`
}

// NullFloat decodes a JSON number, a numeric string or null.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

func (n *NullFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = NullFloat{}
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*n = NullFloat{}
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parsing %q as number: %w", s, err)
		}
		*n = NullFloat{Float64: f, Valid: true}
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = NullFloat{Float64: f, Valid: true}
	return nil
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}
