package materials

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/yungbote/neurobridge-companion/internal/pkg/wiretime"
)

type FileKind string

const (
	FileKindPDF     FileKind = "pdf"
	FileKindDOCX    FileKind = "docx"
	FileKindPPTX    FileKind = "pptx"
	FileKindImage   FileKind = "image"
	FileKindText    FileKind = "text"
	FileKindUnknown FileKind = "unknown"
)

// AllowedExtensions mirrors the backend's upload allow-list.
var AllowedExtensions = []string{"pdf", "docx", "pptx", "jpg", "jpeg", "png", "txt"}

// ParseFileKind maps a file extension (with or without the dot) or a kind name to a FileKind.
func ParseFileKind(raw string) FileKind {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), ".") {
	case "pdf":
		return FileKindPDF
	case "docx":
		return FileKindDOCX
	case "pptx":
		return FileKindPPTX
	case "jpg", "jpeg", "png", "image":
		return FileKindImage
	case "txt", "text":
		return FileKindText
	default:
		return FileKindUnknown
	}
}

// ExtensionOf returns the lower-cased extension of name without the dot.
func ExtensionOf(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(strings.TrimSpace(name))), ".")
}

func (k *FileKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*k = ParseFileKind(s)
	return nil
}

type Material struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id,omitempty"`
	Title         string        `json:"title"`
	FileKind      FileKind      `json:"file_type"`
	ExtractedText string        `json:"extracted_text"`
	UploadedAt    wiretime.Time `json:"uploaded_at"`
}

// Ready reports whether text extraction has produced anything to study from.
func (m Material) Ready() bool { return strings.TrimSpace(m.ExtractedText) != "" }
