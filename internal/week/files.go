package week

import (
	"encoding/json"
	"fmt"
)

// FileType enumerates the asset kinds a story declares in its manifest.
type FileType string

const (
	FileChart         FileType = "chart"
	FileCover         FileType = "cover"
	FileReel          FileType = "reel"
	FileReelWithVoice FileType = "reel_with_voice"
)

// Valid reports whether the file type tag is known.
func (t FileType) Valid() bool {
	switch t {
	case FileChart, FileCover, FileReel, FileReelWithVoice:
		return true
	}
	return false
}

// FileDescriptor is one entry of the declared output manifest, encoded in
// JSON as a 4-tuple: [phase, index, file_type, extension]. The manifest is
// descriptive only; the dispatcher derives actual paths from type and slug.
type FileDescriptor struct {
	Phase     int
	Index     int
	FileType  FileType
	Extension string
}

// UnmarshalJSON decodes the 4-tuple array form.
func (d *FileDescriptor) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("file descriptor must be an array: %w", err)
	}
	if len(tuple) != 4 {
		return fmt.Errorf("file descriptor must have 4 elements, got %d", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &d.Phase); err != nil {
		return fmt.Errorf("file descriptor phase: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &d.Index); err != nil {
		return fmt.Errorf("file descriptor index: %w", err)
	}
	if err := json.Unmarshal(tuple[2], &d.FileType); err != nil {
		return fmt.Errorf("file descriptor type: %w", err)
	}
	if err := json.Unmarshal(tuple[3], &d.Extension); err != nil {
		return fmt.Errorf("file descriptor extension: %w", err)
	}
	return nil
}

// MarshalJSON re-encodes the tuple form so a parsed config round-trips.
func (d FileDescriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{d.Phase, d.Index, d.FileType, d.Extension})
}
