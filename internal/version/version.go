package version

// Version is the roomdrop release, shared by the CLI and the server.
// Release builds set it with:
//
//	go build -ldflags="-X 'github.com/BioHazard786/roomdrop/internal/version.Version=v1.0.0'"
var Version = "dev"

// UserAgent identifies roomdrop peers in join metadata.
func UserAgent() string {
	return "roomdrop-cli/" + Version
}
