package models

import (
	"time"
)

type DeliveryTimescale string
type DeliveryMethod string
type CertificateType string
type ProductType string

const (
	TimescaleStandard DeliveryTimescale = "standard"
	TimescaleSameDay  DeliveryTimescale = "same-day"
)

const (
	DeliveryMethodPostal     DeliveryMethod = "postal"
	DeliveryMethodCollection DeliveryMethod = "collection"
)

const (
	CertTypeIncorporation               CertificateType = "incorporation"
	CertTypeIncorporationAllNameChanges CertificateType = "incorporation-with-all-name-changes"
	CertTypeIncorporationLastNameChange CertificateType = "incorporation-with-last-name-changes"
	CertTypeDissolutionLiquidation      CertificateType = "dissolution-liquidation"
)

const (
	ProductTypeCertificate        ProductType = "certificate"
	ProductTypeCertificateSameDay ProductType = "certificate-same-day"
	ProductTypeAdditionalCopy     ProductType = "certificate-additional-copy"
)

// KindCertificate is the resource kind reported for every certificate item.
const KindCertificate = "item#certificate"

// postalDeliveryByKind maps each resource kind to whether its items are
// dispatched by post. Certificates always are, whatever the delivery method.
var postalDeliveryByKind = map[string]bool{
	KindCertificate: true,
}

// PostalDeliveryForKind reports whether items of the given kind are sent by
// post. Unknown kinds default to postal dispatch.
func PostalDeliveryForKind(kind string) bool {
	if v, ok := postalDeliveryByKind[kind]; ok {
		return v
	}
	return true
}

// ItemOptions holds the customer-selected certificate options plus company
// attributes denormalised from the company profile at enrichment time.
type ItemOptions struct {
	CertificateType    CertificateType   `json:"certificate_type,omitempty"`
	DeliveryTimescale  DeliveryTimescale `json:"delivery_timescale,omitempty"`
	DeliveryMethod     DeliveryMethod    `json:"delivery_method,omitempty"`
	CollectionLocation string            `json:"collection_location,omitempty"`
	CompanyType        string            `json:"company_type,omitempty"`
	CompanyStatus      string            `json:"company_status,omitempty"`

	IncludeGoodStandingInformation            *bool `json:"include_good_standing_information,omitempty"`
	IncludeCompanyObjectsInformation          *bool `json:"include_company_objects_information,omitempty"`
	IncludeGeneralNatureOfBusinessInformation *bool `json:"include_general_nature_of_business_information,omitempty"`
}

// ItemCost is the priced breakdown for a single certificate unit.
type ItemCost struct {
	ItemCost        string      `json:"item_cost"`
	DiscountApplied string      `json:"discount_applied"`
	CalculatedCost  string      `json:"calculated_cost"`
	ProductType     ProductType `json:"product_type"`
}

// Links holds hypermedia links for a certificate item.
type Links struct {
	Self string `json:"self"`
}

// CertificateItem is the central orderable entity. Cost fields are never
// persisted: they are a projection of the stored item and the current cost
// configuration, recomputed on every read and write.
type CertificateItem struct {
	ID                    string            `db:"id" json:"id"`
	UserID                string            `db:"user_id" json:"-"`
	CompanyNumber         string            `db:"company_number" json:"company_number"`
	CompanyName           string            `db:"company_name" json:"company_name,omitempty"`
	CustomerReference     string            `db:"customer_reference" json:"customer_reference,omitempty"`
	Quantity              int               `db:"quantity" json:"quantity"`
	Kind                  string            `db:"kind" json:"kind"`
	Description           string            `db:"description" json:"description"`
	DescriptionIdentifier string            `db:"description_identifier" json:"description_identifier"`
	DescriptionValues     map[string]string `db:"-" json:"description_values,omitempty"`
	ItemOptions           *ItemOptions      `db:"-" json:"item_options,omitempty"`
	Links                 Links             `db:"-" json:"links"`
	PostalDelivery        bool              `db:"postal_delivery" json:"postal_delivery"`
	Etag                  string            `db:"etag" json:"etag"`
	CreatedAt             time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time         `db:"updated_at" json:"updated_at"`

	// Projection-only fields, populated by the cost calculator.
	ItemCosts     []ItemCost `db:"-" json:"item_costs,omitempty"`
	PostageCost   string     `db:"-" json:"postage_cost,omitempty"`
	TotalItemCost string     `db:"-" json:"total_item_cost,omitempty"`
}

// Clone returns a deep copy of the item, used as the target for merge-patch
// application so the stored representation is never mutated in place.
func (i *CertificateItem) Clone() *CertificateItem {
	clone := *i
	if i.ItemOptions != nil {
		opts := *i.ItemOptions
		opts.IncludeGoodStandingInformation = cloneBool(i.ItemOptions.IncludeGoodStandingInformation)
		opts.IncludeCompanyObjectsInformation = cloneBool(i.ItemOptions.IncludeCompanyObjectsInformation)
		opts.IncludeGeneralNatureOfBusinessInformation = cloneBool(i.ItemOptions.IncludeGeneralNatureOfBusinessInformation)
		clone.ItemOptions = &opts
	}
	if i.DescriptionValues != nil {
		clone.DescriptionValues = make(map[string]string, len(i.DescriptionValues))
		for k, v := range i.DescriptionValues {
			clone.DescriptionValues[k] = v
		}
	}
	if i.ItemCosts != nil {
		clone.ItemCosts = append([]ItemCost(nil), i.ItemCosts...)
	}
	return &clone
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
