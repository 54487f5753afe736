package service

import "strings"

// descriptionTemplates maps a description identifier to its display template.
// Templates use {company_number} placeholders.
var descriptionTemplates = map[string]string{
	"certificate": "certificate for company {company_number}",
}

// DescriptionProvider derives the read-only description fields of an item
// from its type and company number.
type DescriptionProvider struct{}

// NewDescriptionProvider constructs a DescriptionProvider.
func NewDescriptionProvider() *DescriptionProvider {
	return &DescriptionProvider{}
}

// CertificateDescription returns the templated description text, its
// identifier, and the key/value pairs the template was filled from.
func (p *DescriptionProvider) CertificateDescription(companyNumber string) (description, identifier string, values map[string]string) {
	identifier = "certificate"
	description = strings.ReplaceAll(descriptionTemplates[identifier], "{company_number}", companyNumber)
	values = map[string]string{
		"company_number": companyNumber,
		"certificate":    description,
	}
	return description, identifier, values
}
