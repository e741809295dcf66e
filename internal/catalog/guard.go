// SPDX-License-Identifier: MIT
package catalog

import (
	"fmt"
	"path"
	"strings"
)

// ResolveAudio joins a requested filename onto musicDir and rejects any
// name that would leave it. The check is purely lexical and never touches
// the filesystem. Backslashes count as separators.
func ResolveAudio(musicDir, filename string) (string, error) {
	name := strings.ReplaceAll(filename, "\\", "/")
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: %q", ErrPathTraversal, filename)
	}
	if path.IsAbs(name) {
		return "", fmt.Errorf("%w: %q is absolute", ErrPathTraversal, filename)
	}
	clean := path.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q escapes %s", ErrPathTraversal, filename, musicDir)
	}
	if clean == "." {
		return "", fmt.Errorf("%w: empty filename", ErrNotFound)
	}
	return path.Join(slashDir(musicDir), clean), nil
}

// recordName returns the store name of the record for a music-dir
// relative audio filename: "a/song.mp3" -> "<musicDir>/a/song.json".
func recordName(musicDir, audioRel string) string {
	return path.Join(slashDir(musicDir), baseName(audioRel)+".json")
}

// baseName strips the extension: "a/song.mp3" -> "a/song".
func baseName(audioRel string) string {
	return strings.TrimSuffix(audioRel, path.Ext(audioRel))
}

func slashDir(dir string) string {
	return path.Clean(strings.ReplaceAll(dir, "\\", "/"))
}
