package models

import "time"

// Backup is the bulk export/import document.
type Backup struct {
	Students    []Student    `json:"students"`
	Attendances []Attendance `json:"attendances"`
	ExportedAt  time.Time    `json:"export_timestamp"`
}

// ImportRowError records one rejected row; the batch continues past it.
type ImportRowError struct {
	Collection string `json:"collection"`
	Key        string `json:"key"`
	Reason     string `json:"reason"`
}

// ImportCounts splits processed rows into inserts and replacements.
type ImportCounts struct {
	New     int `json:"new"`
	Updated int `json:"updated"`
}

// ImportSummary is the human-facing result of a bulk import.
type ImportSummary struct {
	Students    ImportCounts     `json:"students"`
	Attendances ImportCounts     `json:"attendances"`
	Errors      []ImportRowError `json:"errors,omitempty"`
}
