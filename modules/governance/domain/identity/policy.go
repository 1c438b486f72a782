package identity

import "strings"

// Policy holds the replaceable identity and company derivation rules:
// which identifiers count as machine credentials, which email providers
// are consumer-grade, and the labels assigned in each case.
type Policy struct {
	APIKeyPrefixes     []string
	GenericProviders   []string
	PersonalCompany    string
	IntegrationCompany string
}

func DefaultPolicy() Policy {
	return Policy{
		APIKeyPrefixes:     []string{"vtexappkey"},
		GenericProviders:   []string{"gmail", "outlook", "hotmail", "live", "yahoo", "icloud", "me"},
		PersonalCompany:    "Personal / External",
		IntegrationCompany: "Integration (API Key)",
	}
}

func (p Policy) IsAPIKey(identifier string) bool {
	key := CanonicalKey(identifier)
	for _, prefix := range p.APIKeyPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// CompanyFromIdentifier derives an organization label when no explicit
// company is known: API keys get the integration label, consumer email
// providers the personal label, any other email domain its first label
// title-cased. Non-email identifiers yield "".
func (p Policy) CompanyFromIdentifier(identifier string) string {
	if p.IsAPIKey(identifier) {
		return p.IntegrationCompany
	}
	key := CanonicalKey(identifier)
	if !IsEmail(key) {
		return ""
	}
	domain := key[strings.Index(key, "@")+1:]
	label := domain
	if dot := strings.Index(domain, "."); dot >= 0 {
		label = domain[:dot]
	}
	if label == "" {
		return ""
	}
	for _, provider := range p.GenericProviders {
		if label == provider {
			return p.PersonalCompany
		}
	}
	return titleCase(label)
}

// DisplayName derives a presentable name from the identifier alone.
// API keys stay verbatim to keep the credential recognizable.
func (p Policy) DisplayName(identifier string) string {
	if p.IsAPIKey(identifier) {
		return strings.TrimSpace(identifier)
	}
	return Humanize(identifier)
}
