// Package sysinfo describes the host performing a sync.
package sysinfo

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

const fallbackHostname = "localhost"

// Info identifies the uploading host.
type Info struct {
	Hostname      string
	OS            string
	KernelVersion string
}

// String renders the uploader string stored in object metadata, e.g. "laptop (linux 6.8.0)".
func (i Info) String() string {
	release := strings.TrimSpace(i.OS + " " + i.KernelVersion)
	return fmt.Sprintf("%s (%s)", i.Hostname, release)
}

// Detect collects host details, falling back to the os package when gopsutil
// cannot read them.
func Detect(ctx context.Context) Info {
	info := Info{OS: runtime.GOOS}

	if stat, err := host.InfoWithContext(ctx); err == nil {
		info.Hostname = stat.Hostname
		if stat.OS != "" {
			info.OS = stat.OS
		}
		info.KernelVersion = stat.KernelVersion
	}

	if info.Hostname == "" {
		info.Hostname = Hostname()
	}
	return info
}

// Hostname returns the local host name, or "localhost" when it cannot be resolved.
func Hostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return fallbackHostname
	}
	return name
}
