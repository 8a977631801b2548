// Package notes packs the card fields that have no native representation in
// the remote task store (labels, image) into the task's free-text notes
// field, delimited by a fixed marker.
package notes

import (
	"strings"

	"github.com/bytedance/sonic"
)

// Decode splits on the bare marker; Encode writes a blank line before it so
// the description stays readable in other Google Tasks clients.
const (
	marker       = "\n---METADATA---\n"
	encodePrefix = "\n\n---METADATA---\n"
)

// Metadata is the auxiliary card state carried inside notes.
type Metadata struct {
	Labels []string `json:"labels,omitempty"`
	Image  string   `json:"image,omitempty"`
}

// Empty reports whether there is nothing worth encoding.
func (m Metadata) Empty() bool {
	return len(m.Labels) == 0 && m.Image == ""
}

// Encode combines a description and metadata into a notes string. When no
// metadata is present the description is returned as-is.
func Encode(description string, meta Metadata) string {
	if meta.Empty() {
		return description
	}
	blob, err := sonic.Marshal(meta)
	if err != nil {
		// Metadata is plain strings; marshal cannot realistically fail.
		return description
	}
	return description + encodePrefix + string(blob)
}

// Decode splits a notes string back into description and metadata. A
// malformed metadata blob is never fatal: the whole original string degrades
// to the description.
func Decode(raw string) (string, Metadata) {
	if raw == "" {
		return "", Metadata{}
	}
	idx := strings.Index(raw, marker)
	if idx < 0 {
		return raw, Metadata{}
	}
	var meta Metadata
	if err := sonic.Unmarshal([]byte(raw[idx+len(marker):]), &meta); err != nil {
		return raw, Metadata{}
	}
	// Drop the blank separator line Encode inserted before the marker.
	return strings.TrimSuffix(raw[:idx], "\n"), meta
}
