package inbox

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// "WhatsApp Chat with Alice", "WhatsApp Chat - Alice"
	exportPrefix = regexp.MustCompile(`(?i)^whatsapp\s+chat\s*(?:with\s+|-\s*)`)
	// " (2)" left behind by browsers and file managers on duplicates
	duplicateSuffix = regexp.MustCompile(`\s*\(\d+\)$`)
)

// iOS zips hold the chat as _chat.txt inside "WhatsApp Chat - <Name>".
const iosChatFile = "_chat.txt"

// ContactNameFromFilename derives the contact name from the path of a
// WhatsApp export. ok is false for non-.txt files or when no name remains.
func ContactNameFromFilename(path string) (name string, ok bool) {
	base := filepath.Base(path)
	if !strings.EqualFold(filepath.Ext(base), ".txt") {
		return "", false
	}

	stem := base
	if strings.EqualFold(base, iosChatFile) {
		stem = filepath.Base(filepath.Dir(path))
		if stem == "." || stem == string(filepath.Separator) {
			return "", false
		}
	} else {
		stem = strings.TrimSuffix(base, filepath.Ext(base))
	}

	stem = duplicateSuffix.ReplaceAllString(strings.TrimSpace(stem), "")
	stem = exportPrefix.ReplaceAllString(stem, "")
	stem = strings.TrimSpace(stem)
	if stem == "" || strings.EqualFold(stem, "whatsapp chat") {
		return "", false
	}
	return stem, true
}
