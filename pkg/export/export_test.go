package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradeSheet() Dataset {
	return Dataset{
		Title:   "Essay 1 - grades",
		Headers: []string{"student", "grade", "feedback"},
		Rows: [][]string{
			{"maria", "85", "good, structured"},
			{"pedro", "", ""},
		},
	}
}

func TestCSVRender(t *testing.T) {
	out, err := NewCSVExporter().Render(gradeSheet())
	require.NoError(t, err)
	assert.Equal(t, "student,grade,feedback\nmaria,85,\"good, structured\"\npedro,,\n", string(out))
}

func TestPDFRender(t *testing.T) {
	out, err := NewPDFExporter().Render(gradeSheet())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderRejectsRaggedRows(t *testing.T) {
	data := gradeSheet()
	data.Rows = append(data.Rows, []string{"only-one"})
	_, err := NewCSVExporter().Render(data)
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestForFormat(t *testing.T) {
	r, ok := ForFormat("pdf")
	require.True(t, ok)
	assert.Equal(t, "application/pdf", r.ContentType())
	_, ok = ForFormat("xlsx")
	assert.False(t, ok)
}
