// Package version carries build metadata set at link time.
package version

//nolint:gochecknoglobals // set with -ldflags -X
var (
	name    = "guide-audit"
	version = "dev"
	commit  = "unknown"
)

func Name() string {
	return name
}

func Version() string {
	return version
}

func Commit() string {
	return commit
}
