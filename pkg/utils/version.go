// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

import "fmt"

// Set at build time with -ldflags "-X".
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// VersionString is the one-line version shown by "jobpilot version".
func VersionString() string {
	return fmt.Sprintf("jobpilot %s (%s, built %s)", Version, Sha, Buildtime)
}
