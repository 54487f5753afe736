package companyprofile

// Profile is the subset of the company profile resource this service
// denormalises into certificate items.
type Profile struct {
	CompanyName   string `json:"company_name"`
	Type          string `json:"type"`
	CompanyStatus string `json:"company_status"`
}
