// Package version provides build and version information for GameMap.
package version

// Version is the current release version of GameMap.
// This can be overridden at build time using:
//
//	go build -ldflags "-X github.com/AaronLay10/GameMap/internal/version.Version=x.y.z"
var Version = "0.3.0"
