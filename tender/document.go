// Package tender talks to the procurement portal: it lists a tender's
// documents, picks the bidding terms among them and downloads it.
package tender

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// noTypeLabel is reported for documents without a type when none qualifies.
const noTypeLabel = "Sin tipo"

// relevantTypes are the normalized documentTypeDetails values that identify
// the bidding terms (PBC) or the invitation letter.
var relevantTypes = []string{
	"pliego de bases y condiciones",
	"carta de invitacion",
}

// relevantKeywords and relevantExts drive IsRelevantDocument.
var (
	relevantKeywords = []string{"pliego", "pbc", "carta", "invitacion"}
	relevantExts     = map[string]bool{".pdf": true, ".doc": true, ".docx": true}
)

// DocumentRef is one attachment of a tender as returned by the portal API.
type DocumentRef struct {
	ID                  flexString `json:"id"`
	Title               string     `json:"title"`
	DocumentTypeDetails string     `json:"documentTypeDetails"`
	URL                 string     `json:"url"`
}

// TypeLabel returns the raw type text, or "Sin tipo" when absent.
func (d DocumentRef) TypeLabel() string {
	if d.DocumentTypeDetails == "" {
		return noTypeLabel
	}
	return d.DocumentTypeDetails
}

// IsRelevantType reports whether the declared type is the PBC or the
// invitation letter.
func (d DocumentRef) IsRelevantType() bool {
	if d.DocumentTypeDetails == "" {
		return false
	}
	t := Normalize(d.DocumentTypeDetails)
	for _, want := range relevantTypes {
		if t == want {
			return true
		}
	}
	return false
}

// flexString accepts both JSON strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// String returns the underlying value.
func (f flexString) String() string { return string(f) }

// Normalize strips diacritics and lower-cases s ("Invitación" -> "invitacion").
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// IsRelevantDocument reports whether a file name looks like a PBC or an
// invitation letter in a format the pipeline can turn into a PDF.
func IsRelevantDocument(filename string) bool {
	if !relevantExts[strings.ToLower(filepath.Ext(filename))] {
		return false
	}
	name := Normalize(filename)
	for _, kw := range relevantKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// SelectDocument returns the first ref whose type is the PBC or the
// invitation letter. Refs without a type are skipped.
func SelectDocument(refs []DocumentRef) (DocumentRef, error) {
	const op = "select document"
	if len(refs) == 0 {
		return DocumentRef{}, Errorf(ErrValidation, op, "document list must not be empty")
	}
	for _, ref := range refs {
		if ref.IsRelevantType() {
			return ref, nil
		}
	}
	labels := make([]string, len(refs))
	for i, ref := range refs {
		labels[i] = ref.TypeLabel()
	}
	return DocumentRef{}, Errorf(ErrDocumentNotFound, op,
		"no PBC or invitation letter found; available types: %s", strings.Join(labels, ", "))
}

// NormalizeID trims a tender identifier and rejects empty values.
func NormalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", Errorf(ErrValidation, "normalize id", "tender id must not be empty")
	}
	return id, nil
}

// MIMEType maps a document title to the MIME type of its extension, or ""
// when the extension is not one the pipeline handles.
func MIMEType(title string) string {
	switch strings.ToLower(filepath.Ext(title)) {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".zip":
		return "application/zip"
	case ".rar":
		return "application/x-rar-compressed"
	default:
		return ""
	}
}
