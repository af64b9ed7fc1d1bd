package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := &CSVExporter{}
	body, err := exporter.Render(Dataset{
		Headers: []string{"invitee", "notes"},
		Rows: []map[string]string{
			{"invitee": "Ada", "notes": "bring slides, agenda"},
			{"invitee": "Grace"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "invitee,notes\nAda,\"bring slides, agenda\"\nGrace,\n", string(body))

	withBOM, err := NewCSVExporter().Render(Dataset{Headers: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF, 'a', '\n'}, withBOM)

	_, err = exporter.Render(Dataset{})
	assert.Error(t, err)
}
