package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mi4u/lembrete-api/internal/document"
)

const agendaFixture = `<html><body>
<center>
  <table><tr>
    <td>Unidade Executante: UBS CENTRO</td>
    <td>Profissional: DRA MARIA SOUZA<br>Data: 05-01-2024<br>CNS: 980016280000000<br>Especialidade: CARDIOLOGIA</td>
  </tr></table>
</center>
<table cellpadding="3" border="1">
  <tr><td>Hora</td><td>Código</td><td>Paciente</td><td>Solicitante</td><td>Convênio</td><td>Obs</td></tr>
  <tr><td>08:00</td><td>123</td><td>JOAO DA SILVA</td><td>DR REQUISITANTE</td><td>SUS</td><td>-</td></tr>
  <tr><td>Telefone: 16999999999 | 1633334444</td></tr>
  <tr><td></td><td>Horário</td><td>Agendamento</td><td>-</td><td>-</td><td>-</td></tr>
  <tr><td>Telefone:</td></tr>
  <tr><td>09:30</td><td>456</td><td>ANA PEREIRA</td><td>DR REQUISITANTE</td><td>SUS</td><td>-</td></tr>
  <tr><td>Telefone: 16988887777</td></tr>
  <tr><td>Sobrando</td><td>999</td><td>SEM PAR</td><td>-</td><td>-</td><td>-</td></tr>
</table>
</body></html>`

func parseFixture(t *testing.T, src string) *document.HTMLDocument {
	t.Helper()
	doc, err := document.ParseHTML([]byte(src))
	require.NoError(t, err)
	return doc
}

func TestParseAgendaHeaders(t *testing.T) {
	doc := parseFixture(t, agendaFixture)

	headers, err := ParseAgendaHeaders(doc)
	require.NoError(t, err)
	require.Len(t, headers, 1)

	assert.Equal(t, "UBS CENTRO", headers[0].Unit)
	assert.Equal(t, "DRA MARIA SOUZA", headers[0].Professional)
	assert.Equal(t, "05-01-2024", headers[0].RawDate)
	assert.Equal(t, "CARDIOLOGIA", headers[0].Specialty)
}

func TestParseAgendaHeaders_MalformedUnitCell(t *testing.T) {
	doc := parseFixture(t, `<html><body><center><table><tr>
		<td>sem separador</td>
		<td>Profissional: X<br>Data: Y<br>CNS: Z<br>Especialidade: W</td>
	</tr></table></center></body></html>`)

	_, err := ParseAgendaHeaders(doc)
	assert.Error(t, err)
}

func TestParseAgendaRows(t *testing.T) {
	doc := parseFixture(t, agendaFixture)
	headers, err := ParseAgendaHeaders(doc)
	require.NoError(t, err)

	rows, err := ParseAgendaRows(doc, headers)
	require.NoError(t, err)

	// The sub-header pair is skipped and the odd trailing row is dropped.
	require.Len(t, rows, 2)

	assert.Equal(t, "08:00", rows[0].Time)
	assert.Equal(t, "123", rows[0].Code)
	assert.Equal(t, "JOAO DA SILVA", rows[0].Patient)
	assert.Equal(t, "DR REQUISITANTE", rows[0].Requester)
	assert.Equal(t, " 16999999999 | 1633334444", rows[0].Phones)
	assert.Equal(t, "UBS CENTRO", rows[0].Header.Unit)

	assert.Equal(t, "456", rows[1].Code)
	assert.Equal(t, "ANA PEREIRA", rows[1].Patient)
}

func TestParseAgendaRows_PhoneCellTrailingColon(t *testing.T) {
	doc := parseFixture(t, `<html><body>
<center>
  <table><tr>
    <td>Unidade Executante: UBS CENTRO</td>
    <td>Profissional: DRA MARIA SOUZA<br>Data: 05-01-2024<br>CNS: 980016280000000<br>Especialidade: CARDIOLOGIA</td>
  </tr></table>
</center>
<table cellpadding="3" border="1">
  <tr><td>Hora</td><td>Código</td><td>Paciente</td><td>Solicitante</td><td>Convênio</td><td>Obs</td></tr>
  <tr><td>08:00</td><td>123</td><td>JOAO DA SILVA</td><td>DR REQUISITANTE</td><td>SUS</td><td>-</td></tr>
  <tr><td>Telefone: 16999999999 | 1633334444: recado com a mãe</td></tr>
</table>
</body></html>`)
	headers, err := ParseAgendaHeaders(doc)
	require.NoError(t, err)

	rows, err := ParseAgendaRows(doc, headers)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// Anything past a second colon is an annotation, not a phone.
	assert.Equal(t, " 16999999999 | 1633334444", rows[0].Phones)
}

func TestParseAgendaRows_HeaderTableMismatch(t *testing.T) {
	doc := parseFixture(t, agendaFixture)

	_, err := ParseAgendaRows(doc, nil)
	assert.Error(t, err)
}
