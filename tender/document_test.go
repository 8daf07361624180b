package tender

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Carta de Invitación":           "carta de invitacion",
		"PLIEGO DE BASES Y CONDICIONES": "pliego de bases y condiciones",
		"Año Único":                     "ano unico",
		"":                              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "Normalize(%q)", in)
	}
}

func TestIsRelevantDocument(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"pliego_bases.pdf", true},
		{"PBC_final.DOCX", true},
		{"Carta_Invitación.doc", true},
		{"invitacion.pdf", true},
		// keyword present, extension outside the allowed set
		{"pliego.zip", false},
		{"pliego.txt", false},
		{"pliego.pdf.bak", false},
		// allowed extension, no keyword
		{"anexo_tecnico.pdf", false},
		{"formulario.docx", false},
		// neither
		{"readme", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsRelevantDocument(tc.name), "IsRelevantDocument(%q)", tc.name)
	}
}

func TestSelectDocument_FirstRelevantWins(t *testing.T) {
	refs := []DocumentRef{
		{Title: "otros.zip", DocumentTypeDetails: "Otros documentos"},
		{Title: "sin_tipo.pdf"},
		{Title: "carta.docx", DocumentTypeDetails: "CARTA DE INVITACIÓN"},
		{Title: "pbc.pdf", DocumentTypeDetails: "Pliego de bases y condiciones"},
	}
	got, err := SelectDocument(refs)
	require.NoError(t, err)
	assert.Equal(t, "carta.docx", got.Title)
}

func TestSelectDocument_NoneQualify(t *testing.T) {
	refs := []DocumentRef{
		{Title: "a.pdf", DocumentTypeDetails: "Adenda"},
		{Title: "b.pdf"},
		{Title: "c.pdf", DocumentTypeDetails: "Pliego de bases"},
	}
	_, err := SelectDocument(refs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDocumentNotFound))
	assert.True(t, errors.Is(err, ErrAcquisition))
	assert.Contains(t, err.Error(), "Adenda, Sin tipo, Pliego de bases")
}

func TestSelectDocument_EmptyList(t *testing.T) {
	_, err := SelectDocument(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestNormalizeID(t *testing.T) {
	id, err := NormalizeID("  12345 \n")
	require.NoError(t, err)
	assert.Equal(t, "12345", id)

	_, err = NormalizeID("   ")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestDocumentRef_NumericID(t *testing.T) {
	var ref DocumentRef
	require.NoError(t, json.Unmarshal([]byte(`{"id": 42, "title": "x.pdf"}`), &ref))
	assert.Equal(t, "42", ref.ID.String())

	require.NoError(t, json.Unmarshal([]byte(`{"id": "abc"}`), &ref))
	assert.Equal(t, "abc", ref.ID.String())
}

func TestMIMEType(t *testing.T) {
	assert.Equal(t, "application/pdf", MIMEType("a.pdf"))
	assert.Equal(t, "application/msword", MIMEType("a.doc"))
	assert.Equal(t, "application/zip", MIMEType("a.ZIP"))
	assert.Equal(t, "application/x-rar-compressed", MIMEType("a.rar"))
	assert.Equal(t, "", MIMEType("a.odt"))
}

func TestError_KindOf(t *testing.T) {
	err := Errorf(ErrDownload, "download", "boom: %w", errors.New("cause"))
	assert.Equal(t, ErrDownload, KindOf(err))
	assert.Nil(t, KindOf(errors.New("plain")))
	assert.Equal(t, "download: download error: boom: cause", err.Error())
	assert.False(t, errors.Is(err, ErrAPI))
}
