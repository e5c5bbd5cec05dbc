package utils

import (
	"path/filepath"
	"strings"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// OutputPath replaces the extension of inPath with ext, or appends ext if
// inPath has none.
func OutputPath(inPath, ext string) string {
	old := filepath.Ext(inPath)
	if old == "" {
		return inPath + ext
	}
	return strings.TrimSuffix(inPath, old) + ext
}
