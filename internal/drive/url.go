// Package drive downloads override targets from Google Drive when a
// directory's drive_map.json points a file at a Drive resource.
package drive

import (
	"fmt"
	"net/url"
	"strings"
)

// ResourceKind distinguishes file and folder share links
type ResourceKind string

const (
	ResourceKindFile   ResourceKind = "file"
	ResourceKindFolder ResourceKind = "folder"
)

// Resource identifies a Drive object extracted from a share URL
type Resource struct {
	ID   string
	Kind ResourceKind
}

// IsResourceURL reports whether raw looks like a Drive share link
func IsResourceURL(raw string) bool {
	_, err := ParseResourceURL(raw)
	return err == nil
}

// ParseResourceURL extracts the resource ID from the share URL forms
// Drive hands out: /file/d/<id>, /drive/folders/<id>, uc?id=<id> and
// open?id=<id>.
func ParseResourceURL(raw string) (*Resource, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	host := strings.ToLower(u.Host)
	if host != "drive.google.com" && host != "docs.google.com" {
		return nil, fmt.Errorf("not a Drive URL: %s", raw)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	for i, seg := range segments {
		switch seg {
		case "d":
			if i+1 < len(segments) && segments[i+1] != "" {
				return &Resource{ID: segments[i+1], Kind: ResourceKindFile}, nil
			}
		case "folders":
			if i+1 < len(segments) && segments[i+1] != "" {
				return &Resource{ID: segments[i+1], Kind: ResourceKindFolder}, nil
			}
		}
	}

	if id := u.Query().Get("id"); id != "" {
		return &Resource{ID: id, Kind: ResourceKindFile}, nil
	}

	return nil, fmt.Errorf("no resource ID in Drive URL: %s", raw)
}
