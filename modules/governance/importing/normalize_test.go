package importing_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/accessinsight/accessinsight/modules/governance/importing"
)

func TestNormalize_PortugueseHeadersWithDiacritics(t *testing.T) {
	row := importing.RawRow{
		Headers: []string{"Usuário", "Nome do Colaborador", "Perfil de Acesso", "Empresa", "Sistema"},
		Values:  []string{" joao@acme.com ", "Joao Silva", "Administrador", "Acme", "ERP"},
	}

	got, ok := importing.Normalize(row)
	require.True(t, ok)
	assert.Equal(t, "joao@acme.com", got.Identifier)
	assert.Equal(t, "Joao Silva", got.DisplayName)
	assert.Equal(t, "Administrador", got.Profile)
	assert.Equal(t, "Acme", got.Company)
	assert.Equal(t, "ERP", got.SystemName)
}

func TestNormalize_EnglishHeaders(t *testing.T) {
	row := importing.RawRow{
		Headers: []string{"E-mail", "Display Name", "Role", "Company"},
		Values:  []string{"ana@corp.io", "Ana Lima", "Viewer", "Corp"},
	}

	got, ok := importing.Normalize(row)
	require.True(t, ok)
	assert.Equal(t, "ana@corp.io", got.Identifier)
	assert.Equal(t, "Ana Lima", got.DisplayName)
	assert.Equal(t, "Viewer", got.Profile)
	assert.Equal(t, "", got.SystemName)
}

func TestNormalize_AlternateSynonyms(t *testing.T) {
	got, ok := importing.Normalize(importing.RawRow{
		Headers: []string{"Correio Eletrônico", "Atribuição"},
		Values:  []string{"joao@acme.com", "Gestor"},
	})
	require.True(t, ok)
	assert.Equal(t, "joao@acme.com", got.Identifier)
	assert.Equal(t, "Gestor", got.Profile)

	got, ok = importing.Normalize(importing.RawRow{
		Headers: []string{"Contato", "Perfil"},
		Values:  []string{"ana@corp.io", "Viewer"},
	})
	require.True(t, ok)
	assert.Equal(t, "ana@corp.io", got.Identifier)
}

func TestNormalize_APIKeyColumnWinsOverEmail(t *testing.T) {
	headers := []string{"Email", "App Key"}

	got, ok := importing.Normalize(importing.RawRow{
		Headers: headers,
		Values:  []string{"owner@acme.com", "vtexappkey-store-X"},
	})
	require.True(t, ok)
	assert.Equal(t, "vtexappkey-store-X", got.Identifier)

	// empty key cell falls back to the email column
	got, ok = importing.Normalize(importing.RawRow{
		Headers: headers,
		Values:  []string{"owner@acme.com", ""},
	})
	require.True(t, ok)
	assert.Equal(t, "owner@acme.com", got.Identifier)
}

func TestNormalize_DropRules(t *testing.T) {
	headers := []string{"Email", "Perfil"}

	_, ok := importing.Normalize(importing.RawRow{Headers: headers, Values: []string{"", "Admin"}})
	assert.False(t, ok)

	_, ok = importing.Normalize(importing.RawRow{Headers: headers, Values: []string{"n/a", "Admin"}})
	assert.False(t, ok)

	_, ok = importing.Normalize(importing.RawRow{Headers: headers, Values: []string{"  ", "Admin"}})
	assert.False(t, ok)
}

func TestNormalize_NotApplicableProfileCleared(t *testing.T) {
	got, ok := importing.Normalize(importing.RawRow{
		Headers: []string{"Email", "Profile"},
		Values:  []string{"joao@acme.com", "N/A"},
	})
	require.True(t, ok)
	assert.Equal(t, "", got.Profile)
}

func TestNormalize_ShortRowDegradesToEmptyFields(t *testing.T) {
	got, ok := importing.Normalize(importing.RawRow{
		Headers: []string{"Email", "Nome", "Perfil"},
		Values:  []string{"joao@acme.com"},
	})
	require.True(t, ok)
	assert.Equal(t, "", got.DisplayName)
	assert.Equal(t, "", got.Profile)
}

func TestNormalizeAll_SkipsUnusableRows(t *testing.T) {
	rows := importing.NormalizeAll(
		[]string{"Email", "Perfil"},
		[][]string{
			{"joao@acme.com", "Admin"},
			{"", "Viewer"},
			{"N/A", "Viewer"},
			{"ana@corp.io", "Viewer"},
		},
	)
	require.Len(t, rows, 2)
	assert.Equal(t, "joao@acme.com", rows[0].Identifier)
	assert.Equal(t, "ana@corp.io", rows[1].Identifier)
}

func TestParseCSV(t *testing.T) {
	input := "\xEF\xBB\xBFEmail,Nome,Perfil,Sistema\n" +
		"joao@acme.com,Joao Silva,Admin,ERP\n" +
		",,,ERP\n" +
		"ana@corp.io,Ana Lima,Viewer,CRM\n"

	rows, err := importing.ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "joao@acme.com", rows[0].Identifier)
	assert.Equal(t, "ERP", rows[0].SystemName)
	assert.Equal(t, "Ana Lima", rows[1].DisplayName)
}

func TestParseCSV_EmptyInput(t *testing.T) {
	rows, err := importing.ParseCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]string{"Usuário", "Perfil", "Sistema"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]string{"joao@acme.com", "Admin", "ERP"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]string{"N/A", "Viewer", "ERP"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := importing.ParseXLSX(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "joao@acme.com", rows[0].Identifier)
	assert.Equal(t, "Admin", rows[0].Profile)
	assert.Equal(t, "ERP", rows[0].SystemName)
}

func TestParseXLSX_Garbage(t *testing.T) {
	_, err := importing.ParseXLSX(strings.NewReader("not a workbook"))
	require.Error(t, err)
}
