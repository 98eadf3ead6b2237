package ocr

import (
	"fmt"
	"strings"
)

const emptyPartPlaceholder = "[No text could be extracted from these pages]"

// Merge joins OCR output into one summary. Split documents get a marker per
// part so the extractor can tell where pages begin and end; every summary ends
// with the source filename. An all-empty input returns "".
func Merge(parts []Part, filename string) string {
	if !hasText(parts) {
		return ""
	}

	var b strings.Builder

	if len(parts) == 1 {
		b.WriteString(parts[0].Text)
	} else {
		totalPages := parts[len(parts)-1].Pages.End
		for i, p := range parts {
			if i > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "=== PAGES %d-%d (PART %d OF %d) ===\n", p.Pages.Start, p.Pages.End, i+1, len(parts))
			if p.Text == "" {
				b.WriteString(emptyPartPlaceholder)
			} else {
				b.WriteString(p.Text)
			}
		}
		fmt.Fprintf(&b, "\n\n=== END OF DOCUMENT (%d PARTS, %d PAGES) ===", len(parts), totalPages)
		b.WriteString("\nThe final part holds the last pages, where endorsements and annual survey stamps usually appear.")
	}

	if filename != "" {
		fmt.Fprintf(&b, "\n\n[Source file: %s]", filename)
	}

	return b.String()
}

func hasText(parts []Part) bool {
	for _, p := range parts {
		if strings.TrimSpace(p.Text) != "" {
			return true
		}
	}
	return false
}
