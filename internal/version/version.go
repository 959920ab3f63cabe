// Package version provides build and version information.
package version

// Version is the current application version.
// Update this at logical milestones.
const Version = "0.1.0"

// Milestones:
// 0.1.0 - Initial release: sync, 2x transcode, prune, unmount
// 0.2.0 - (planned) configurable tempo presets in the TUI
// 1.0.0 - (planned) feature-complete public release
