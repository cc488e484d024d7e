package materials

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileKind(t *testing.T) {
	cases := map[string]FileKind{
		"pdf":   FileKindPDF,
		".DOCX": FileKindDOCX,
		"pptx":  FileKindPPTX,
		"jpeg":  FileKindImage,
		"png":   FileKindImage,
		"txt":   FileKindText,
		"exe":   FileKindUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseFileKind(in), in)
	}
}

func TestMaterialDecodesBackendFileType(t *testing.T) {
	raw := `{"id":"m1","user_id":"u1","title":"Cells","file_type":"jpg","extracted_text":"","uploaded_at":"2025-01-02T03:04:05Z"}`
	var m Material
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	assert.Equal(t, FileKindImage, m.FileKind)
	assert.False(t, m.Ready())
	assert.Equal(t, "pdf", ExtensionOf("Notes.PDF"))
}
