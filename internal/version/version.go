// Package version reports build information for the traverser binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Name is the program name shown in version output.
const Name = "traverser"

var (
	// These variables are set during build time
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

// BuildInfo contains build and runtime information
type BuildInfo struct {
	Version   string `json:"version" yaml:"version"`
	SemVer    string `json:"semver" yaml:"semver"`
	BuildDate string `json:"build_date" yaml:"build_date"`

	GitCommit string `json:"git_commit" yaml:"git_commit"`
	GitBranch string `json:"git_branch" yaml:"git_branch"`
	Modified  bool   `json:"modified" yaml:"modified"`

	GoVersion string `json:"go_version" yaml:"go_version"`
	Compiler  string `json:"compiler" yaml:"compiler"`
	Platform  string `json:"platform" yaml:"platform"`
	NumCPU    int    `json:"num_cpu" yaml:"num_cpu"`

	BuildDeps []Module `json:"build_deps,omitempty" yaml:"build_deps,omitempty"`
}

// Module represents a Go module dependency
type Module struct {
	Path    string `json:"path" yaml:"path"`
	Version string `json:"version" yaml:"version"`
}

// GetBuildInfo returns build information, falling back to the VCS stamp
// embedded by the Go toolchain when the linker flags were not set.
func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		SemVer:    strings.TrimPrefix(strings.Split(Version, "-")[0], "v"),
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		GoVersion: runtime.Version(),
		Compiler:  runtime.Compiler,
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		NumCPU:    runtime.NumCPU(),
	}

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.GitCommit == "unknown" {
				info.GitCommit = setting.Value
			}
		case "vcs.time":
			if info.BuildDate == "unknown" {
				info.BuildDate = setting.Value
			}
		case "vcs.modified":
			info.Modified = setting.Value == "true"
		}
	}

	for _, dep := range buildInfo.Deps {
		info.BuildDeps = append(info.BuildDeps, Module{Path: dep.Path, Version: dep.Version})
	}

	return info
}

// Short returns a one-line version string.
func Short() string {
	info := GetBuildInfo()
	commit := info.GitCommit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("%s %s (%s, %s)", Name, info.Version, commit, info.Platform)
}

// FullVersion returns a formatted string with complete version information
func FullVersion() string {
	info := GetBuildInfo()

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s\n", Name, info.Version))
	b.WriteString("========================================\n\n")

	b.WriteString("Version Information:\n")
	b.WriteString(fmt.Sprintf("  Version:      %s\n", info.Version))
	b.WriteString(fmt.Sprintf("  Semantic Ver: %s\n", info.SemVer))
	b.WriteString(fmt.Sprintf("  Build Date:   %s\n", info.BuildDate))
	b.WriteString("\n")

	b.WriteString("Git Information:\n")
	b.WriteString(fmt.Sprintf("  Commit:       %s\n", info.GitCommit))
	b.WriteString(fmt.Sprintf("  Branch:       %s\n", info.GitBranch))
	b.WriteString(fmt.Sprintf("  Modified:     %t\n", info.Modified))
	b.WriteString("\n")

	b.WriteString("Go Build Information:\n")
	b.WriteString(fmt.Sprintf("  Go Version:   %s\n", info.GoVersion))
	b.WriteString(fmt.Sprintf("  Compiler:     %s\n", info.Compiler))
	b.WriteString(fmt.Sprintf("  Platform:     %s\n", info.Platform))
	b.WriteString(fmt.Sprintf("  CPUs:         %d\n", info.NumCPU))

	if len(info.BuildDeps) > 0 {
		b.WriteString("\nDependencies:\n")
		for _, dep := range info.BuildDeps {
			b.WriteString(fmt.Sprintf("  - %s@%s\n", dep.Path, dep.Version))
		}
	}

	return b.String()
}
