package version

// Overridden at build time:
//
//	go build -ldflags "-X inventory-crud/internal/version.Version=v1.0.0 -X inventory-crud/internal/version.Commit=$(git rev-parse --short HEAD)"
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)
