// Package version exposes the application build version.
package version

// Version is overridden at build time with
// -ldflags "-X github.com/finsight-ai/finsight-backend/internal/version.Version=v1.2.3".
var Version = "dev"
