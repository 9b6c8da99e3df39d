package transfer

import (
	"os"
	"path/filepath"

	"github.com/BioHazard786/roomdrop/internal/utils"
)

// SaveArtifact writes a to dir under its announced name, adding a " (n)"
// suffix when the name is taken, and returns the path written. Only the
// base name of the announced filename is used.
func SaveArtifact(dir string, a Artifact) (string, error) {
	name := filepath.Base(filepath.Clean("/" + a.Filename))
	if name == "/" || name == "." {
		name = "download"
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", NewFileError("create directory", dir, err)
		}
	}

	path := utils.GetUniqueFilename(filepath.Join(dir, name))
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return "", NewFileError("write", a.Filename, err)
	}
	return path, nil
}
