package identity

import (
	"fmt"
	"regexp"
	"strings"
)

type ConflictType string

const (
	None         ConflictType = "none"
	IMOMismatch  ConflictType = "imo_mismatch"
	NameMismatch ConflictType = "name_mismatch"
)

type Ship struct {
	Name string
	IMO  string
}

type Result struct {
	Type       ConflictType `json:"type"`
	Message    string       `json:"message"`
	IsBlocking bool         `json:"is_blocking"`
	// OverrideNote is stored with the record when a soft mismatch is accepted.
	OverrideNote string `json:"override_note,omitempty"`
}

func (r Result) HasConflict() bool {
	return r.Type != None
}

var imoLabel = regexp.MustCompile(`(?i)^\s*imo\s*(no\.?|number)?\s*[:.#-]?\s*`)

// Validate compares extracted identity against the ship record. An IMO
// mismatch blocks; the name is only compared when the IMO agrees or is missing.
func Validate(extractedIMO, extractedName string, ship Ship) Result {
	gotIMO, wantIMO := cleanIMO(extractedIMO), cleanIMO(ship.IMO)
	if gotIMO != "" && wantIMO != "" && gotIMO != wantIMO {
		return Result{
			Type: IMOMismatch,
			Message: fmt.Sprintf("IMO number on the document (%s) does not match the selected ship %s (%s). The document appears to belong to a different vessel.",
				gotIMO, ship.Name, wantIMO),
			IsBlocking: true,
		}
	}

	gotName, wantName := strings.TrimSpace(extractedName), strings.TrimSpace(ship.Name)
	if gotName != "" && wantName != "" && !strings.EqualFold(gotName, wantName) {
		return Result{
			Type: NameMismatch,
			Message: fmt.Sprintf("Ship name on the document (%s) differs from the selected ship (%s).",
				gotName, wantName),
			IsBlocking:   false,
			OverrideNote: OverrideNote(gotName, wantName),
		}
	}

	return Result{Type: None}
}

// OverrideNote is the default note attached when a name mismatch is accepted.
func OverrideNote(documentName, shipName string) string {
	return fmt.Sprintf("Ship name on the certificate is %q; uploaded to %q by user override.", documentName, shipName)
}

func IMOOverrideNote(documentIMO, shipIMO string) string {
	return fmt.Sprintf("IMO on the certificate is %s; uploaded to ship with IMO %s by user override.", documentIMO, shipIMO)
}

func cleanIMO(s string) string {
	return strings.TrimSpace(imoLabel.ReplaceAllString(s, ""))
}
