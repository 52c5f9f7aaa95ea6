package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const (
	defaultModule  = "pkt.systems/notetabs"
	unknownVersion = "v0.0.0-unknown"
)

// buildVersion is set via -ldflags "-X pkt.systems/notetabs/internal/version.buildVersion=...".
var buildVersion = ""

// Info describes the running binary.
type Info struct {
	Version   string
	Module    string
	Revision  string
	Built     time.Time
	Modified  bool
	GoVersion string
	Platform  string
}

// String renders the info on one line for the version command.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", i.Module, i.Version)
	if i.Revision != "" {
		fmt.Fprintf(&b, " rev %s", i.Revision)
		if i.Modified {
			b.WriteString(" (modified)")
		}
	}
	if !i.Built.IsZero() {
		fmt.Fprintf(&b, " built %s", i.Built.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, " %s %s", i.GoVersion, i.Platform)
	return b.String()
}

// Describe reports what is known about the running binary.
func Describe() Info {
	info, _ := debug.ReadBuildInfo()
	return describe(info, buildVersion)
}

func describe(info *debug.BuildInfo, override string) Info {
	out := Info{
		Version:   unknownVersion,
		Module:    defaultModule,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	stamp := readStamp(info)
	out.Revision = stamp.shortRevision()
	out.Built = stamp.time
	out.Modified = stamp.modified
	if info != nil {
		if path := strings.TrimSpace(info.Main.Path); path != "" {
			out.Module = path
		}
	}

	switch {
	case strings.TrimSpace(override) != "":
		out.Version = strings.TrimSpace(override)
	case info != nil && info.Main.Version != "" && info.Main.Version != "(devel)":
		out.Version = info.Main.Version
	case stamp.valid():
		out.Version = stamp.pseudoVersion()
	}
	return out
}

// vcsStamp holds the version control settings recorded by the go tool.
type vcsStamp struct {
	revision string
	time     time.Time
	modified bool
}

func readStamp(info *debug.BuildInfo) vcsStamp {
	var s vcsStamp
	if info == nil {
		return s
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			s.revision = setting.Value
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
				s.time = t.UTC()
			}
		case "vcs.modified":
			s.modified = setting.Value == "true"
		}
	}
	return s
}

func (s vcsStamp) valid() bool {
	return s.revision != "" && !s.time.IsZero()
}

func (s vcsStamp) shortRevision() string {
	if len(s.revision) > 12 {
		return s.revision[:12]
	}
	return s.revision
}

// pseudoVersion formats the stamp the way the go tool names untagged commits.
func (s vcsStamp) pseudoVersion() string {
	v := "v0.0.0-" + s.time.Format("20060102150405") + "-" + s.shortRevision()
	if s.modified {
		v += "+dirty"
	}
	return v
}
