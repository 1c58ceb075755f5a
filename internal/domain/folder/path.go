// Package folder contains pure folder-path logic: normalization of raw slash
// paths into segment lists and reconstruction of display paths.
package folder

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxSegments caps the folder tree depth a single path may reference.
	MaxSegments = 16
	// MaxSegmentLength caps the length of a single folder name in runes.
	MaxSegmentLength = 64

	// Separator is the path separator in raw and display paths.
	Separator = "/"
)

// NormalizePath turns a free-form slash path into its canonical segment list.
// Leading/trailing separators are trimmed and repeated separators collapse, so
// "/a//b/" and "a/b" normalize identically. Segment case is preserved and
// names match case-sensitively. Traversal tokens ("." and "..") are rejected.
func NormalizePath(raw string) ([]string, error) {
	trimmed := strings.Trim(strings.TrimSpace(raw), Separator)
	if trimmed == "" {
		return nil, fmt.Errorf("folder path is empty")
	}

	parts := strings.Split(trimmed, Separator)
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		seg := strings.TrimSpace(part)
		if seg == "" {
			// Collapsed separator ("a//b") or whitespace-only name.
			continue
		}
		if seg == "." || seg == ".." {
			return nil, fmt.Errorf("folder path contains traversal segment %q", seg)
		}
		if utf8.RuneCountInString(seg) > MaxSegmentLength {
			return nil, fmt.Errorf("folder name exceeds %d characters", MaxSegmentLength)
		}
		segments = append(segments, seg)
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("folder path is empty")
	}
	if len(segments) > MaxSegments {
		return nil, fmt.Errorf("folder path exceeds %d segments", MaxSegments)
	}
	return segments, nil
}

// JoinPath reconstructs a display path from normalized segments.
func JoinPath(segments []string) string {
	return strings.Join(segments, Separator)
}

// ChildPath derives a folder's materialized path from its parent's path.
// The root level passes an empty parent path.
func ChildPath(parentPath, name string) string {
	if parentPath == "" {
		return name
	}
	return parentPath + Separator + name
}
