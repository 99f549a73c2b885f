package enumerator

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// KeyPolicy derives the object key for a local file. Keys must be stable
// across runs for the same file so fingerprints can be compared.
type KeyPolicy interface {
	Key(root, localPath string) (string, error)
}

// HostQualified keys files by host name followed by their absolute path,
// e.g. "laptop/home/me/site/index.html".
type HostQualified struct {
	Hostname string
}

// Key implements KeyPolicy.
func (p HostQualified) Key(_, localPath string) (string, error) {
	abs, err := filepath.Abs(localPath)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", localPath, err)
	}
	abs = strings.TrimPrefix(abs, filepath.VolumeName(abs))
	return p.Hostname + "/" + strings.TrimPrefix(filepath.ToSlash(abs), "/"), nil
}

// Relative keys files by their path relative to the sync root, under an optional prefix.
type Relative struct {
	Prefix string
}

// Key implements KeyPolicy.
func (p Relative) Key(root, localPath string) (string, error) {
	rel, err := filepath.Rel(root, localPath)
	if err != nil {
		return "", fmt.Errorf("relative path for %s: %w", localPath, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside %s", localPath, root)
	}

	prefix := strings.Trim(p.Prefix, "/")
	if prefix == "" {
		return rel, nil
	}
	return path.Join(prefix, rel), nil
}

// Policy names accepted by ParsePolicy.
const (
	PolicyHost     = "host"
	PolicyRelative = "relative"
)

// ParsePolicy builds a KeyPolicy from its configuration name.
//
//nolint:ireturn // the concrete policy depends on configuration.
func ParsePolicy(name, hostname, prefix string) (KeyPolicy, error) {
	switch name {
	case "", PolicyHost:
		return HostQualified{Hostname: hostname}, nil
	case PolicyRelative:
		return Relative{Prefix: prefix}, nil
	default:
		return nil, fmt.Errorf("unknown key policy %q (want %q or %q)", name, PolicyHost, PolicyRelative)
	}
}
