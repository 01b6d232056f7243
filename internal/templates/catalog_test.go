package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCatalog = `[
	{"id": "lembrete-consulta", "channel": "whatsapp", "body": "Olá {nome}, sua consulta é {data}."},
	{"id": "lembrete-sms", "channel": "sms", "body": "Consulta {data}."}
]`

func TestParse(t *testing.T) {
	catalog, err := Parse([]byte(validCatalog))
	require.NoError(t, err)

	assert.Equal(t, 2, catalog.Len())
	assert.True(t, catalog.Has("lembrete-consulta"))
	assert.False(t, catalog.Has("inexistente"))

	tpl, ok := catalog.Get("lembrete-sms")
	require.True(t, ok)
	assert.Equal(t, "sms", tpl.Channel)
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"not an array", `{"id": "x"}`},
		{"missing body", `[{"id": "x", "channel": "sms"}]`},
		{"bad channel", `[{"id": "x", "channel": "pombo", "body": "y"}]`},
		{"empty id", `[{"id": "", "channel": "sms", "body": "y"}]`},
		{"extra field", `[{"id": "x", "channel": "sms", "body": "y", "extra": 1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParse_DuplicateID(t *testing.T) {
	data := `[
		{"id": "x", "channel": "sms", "body": "a"},
		{"id": "x", "channel": "whatsapp", "body": "b"}
	]`
	_, err := Parse([]byte(data))
	assert.Error(t, err)
}
