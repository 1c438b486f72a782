package importing

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/accessinsight/accessinsight/modules/governance/domain/identity"
	"github.com/accessinsight/accessinsight/modules/governance/domain/reconcile"
)

// RawRow is one spreadsheet row with its header untouched; values are
// already stringified but not trimmed.
type RawRow struct {
	Headers []string
	Values  []string
}

type field int

const (
	fieldAPIKey field = iota
	fieldIdentifier
	fieldDisplayName
	fieldProfile
	fieldCompany
	fieldSystem
)

// Header keywords are matched by substring against the folded header,
// first hit wins per field. Lists cover the locales the source sheets
// actually arrive in; diacritics are folded away before matching, so
// "Usuário" matches "usuario".
var fieldMatchers = []struct {
	field    field
	keywords []string
}{
	{fieldAPIKey, []string{"appkey", "app key", "apikey", "api key", "chave", "token"}},
	{fieldIdentifier, []string{"e-mail", "email", "mail", "correio", "contato", "usuario", "user", "login"}},
	{fieldDisplayName, []string{"nome", "name", "colaborador", "funcionario", "display"}},
	{fieldProfile, []string{"perfil", "profile", "atribuicao", "role", "funcao", "cargo", "papel", "nivel", "acesso", "access"}},
	{fieldCompany, []string{"empresa", "company", "organizacao", "org"}},
	{fieldSystem, []string{"sistema", "system", "ferramenta", "tool", "plataforma", "platform"}},
}

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

func foldHeader(header string) string {
	folded, _, err := transform.String(foldTransformer, header)
	if err != nil {
		folded = header
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// mapHeaders resolves each semantic field to a column index, or -1 when
// no header matches it.
func mapHeaders(headers []string) map[field]int {
	folded := make([]string, len(headers))
	for i, h := range headers {
		folded[i] = foldHeader(h)
	}

	mapping := make(map[field]int, len(fieldMatchers))
	taken := make(map[int]bool, len(headers))
	for _, m := range fieldMatchers {
		mapping[m.field] = -1
		for _, keyword := range m.keywords {
			for i, h := range folded {
				if taken[i] || h == "" {
					continue
				}
				if strings.Contains(h, keyword) {
					mapping[m.field] = i
					taken[i] = true
					break
				}
			}
			if mapping[m.field] >= 0 {
				break
			}
		}
	}
	return mapping
}

func valueAt(row RawRow, idx int) string {
	if idx < 0 || idx >= len(row.Values) {
		return ""
	}
	return strings.TrimSpace(row.Values[idx])
}

func dropped(identifier string) bool {
	return identifier == "" || strings.EqualFold(identifier, identity.NotApplicable)
}

// Normalize turns one raw row into a merge-ready row. The second return
// is false when the row carries no usable identifier and must be
// skipped. Never errors: malformed cells degrade to empty fields.
func Normalize(row RawRow) (reconcile.Row, bool) {
	return normalize(row, mapHeaders(row.Headers))
}

func normalize(row RawRow, mapping map[field]int) (reconcile.Row, bool) {
	identifier := valueAt(row, mapping[fieldAPIKey])
	if dropped(identifier) {
		identifier = valueAt(row, mapping[fieldIdentifier])
	}
	if dropped(identifier) {
		return reconcile.Row{}, false
	}

	profile := valueAt(row, mapping[fieldProfile])
	if strings.EqualFold(profile, identity.NotApplicable) {
		profile = ""
	}

	return reconcile.Row{
		Identifier:  identifier,
		DisplayName: valueAt(row, mapping[fieldDisplayName]),
		Profile:     profile,
		SystemName:  valueAt(row, mapping[fieldSystem]),
		Company:     valueAt(row, mapping[fieldCompany]),
	}, true
}

// NormalizeAll maps headers once and converts every data row, silently
// dropping the unusable ones.
func NormalizeAll(headers []string, records [][]string) []reconcile.Row {
	mapping := mapHeaders(headers)
	rows := make([]reconcile.Row, 0, len(records))
	for _, record := range records {
		row, ok := normalize(RawRow{Headers: headers, Values: record}, mapping)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}
