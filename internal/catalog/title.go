// SPDX-License-Identifier: MIT
package catalog

import (
	"path/filepath"
	"strings"

	applog "github.com/Brian099/music-rhythm-test/internal/log"

	"github.com/bogem/id3v2"
)

// readID3Title returns the ID3 title of an mp3 file, or "" when the file
// is not an mp3 or carries no tag.
func readID3Title(path string) string {
	if !strings.EqualFold(filepath.Ext(path), ".mp3") {
		return ""
	}
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		applog.Debugf("Catalog: No ID3 tag in %s: %v", path, err)
		return ""
	}
	defer tag.Close()
	return strings.TrimSpace(tag.Title())
}
