package models

import "time"

// FileInfo describes a file in an output directory: a generated source or a
// compiled firmware artifact.
type FileInfo struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// GeneratedFile is one emitted firmware source file.
type GeneratedFile struct {
	Name    string
	Content string
}
