// ABOUTME: Version constants for the voxplay client
// ABOUTME: Single place the CLI and logs pull identity from
package version

const (
	// Version is the semantic version of this build.
	Version = "0.3.0"

	// Product is the client's short name.
	Product = "voxplay"

	// Manufacturer is the project the client belongs to.
	Manufacturer = "OpenVox"
)

// String returns "product version" for banners and logs.
func String() string {
	return Product + " " + Version
}
