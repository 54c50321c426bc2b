package models

import "time"

// Table is a delimited file held in memory: a header row and its records.
type Table struct {
	Header  []string
	Records [][]string
}

// Index maps each header name to its column position. When a name repeats,
// the first occurrence wins.
func (t *Table) Index() map[string]int {
	idx := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		if _, ok := idx[h]; !ok {
			idx[h] = i
		}
	}
	return idx
}

// RowMap returns record i keyed by header name. Cells missing from a short
// record read as "".
func (t *Table) RowMap(i int) map[string]string {
	rec := t.Records[i]
	m := make(map[string]string, len(t.Header))
	for col, name := range t.Header {
		if _, seen := m[name]; seen {
			continue
		}
		if col < len(rec) {
			m[name] = rec[col]
		} else {
			m[name] = ""
		}
	}
	return m
}

// FileInfo is the metadata the file shell shows for a stored table.
type FileInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Rows     int       `json:"rows"`
	Modified time.Time `json:"modified"`
}

// PushFailure is one row that could not be delivered.
type PushFailure struct {
	Line int               `json:"line"`
	Row  map[string]string `json:"row"`
	Err  error             `json:"-"`
}

// Error returns the failure's error text, or "" when none was recorded.
func (f PushFailure) Error() string {
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}

// PushResult is the outcome of delivering one cleaned file to a webhook.
type PushResult struct {
	RunID     string        `json:"run_id"`
	Key       string        `json:"file"`
	Endpoint  string        `json:"-"`
	Attempted int           `json:"attempted"`
	Succeeded int           `json:"pushed"`
	Failures  []PushFailure `json:"-"`
	StartedAt time.Time     `json:"started_at"`
	Finished  time.Time     `json:"finished_at"`
}

// Failed returns the number of rows that were not delivered.
func (r *PushResult) Failed() int {
	return len(r.Failures)
}

// FileSummary holds the computed breakdown of one cleaned file.
type FileSummary struct {
	Name            string         `json:"name"`
	TotalContacts   int            `json:"total_contacts"`
	Companies       int            `json:"companies"`
	WithFirstName   int            `json:"with_first_name"`
	WithPhone       int            `json:"with_phone"`
	ContactsByState map[string]int `json:"contacts_by_state"`
	TopCompanies    []CompanyCount `json:"top_companies"`
}

// CompanyCount pairs a company with how many contacts it contributed.
type CompanyCount struct {
	Company  string `json:"company"`
	Contacts int    `json:"contacts"`
}
