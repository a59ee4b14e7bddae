// ABOUTME: Version constants for digimuse
// ABOUTME: Reported by the CLI and in the control server hello
package version

const (
	// Version is the release version
	Version = "0.3.0"

	// Product is the product name
	Product = "digimuse"

	// Manufacturer is reported to control clients
	Manufacturer = "Sendspin"
)

// String returns the product and version
func String() string {
	return Product + " " + Version
}
