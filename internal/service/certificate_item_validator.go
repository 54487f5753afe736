package service

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/certhub/certificates_api/internal/models"
)

// ReadOnlyFields are server-populated fields that must be absent (or null) on
// every inbound payload. Each is surfaced so its presence can be rejected with
// an error naming the field.
type ReadOnlyFields struct {
	ID                    string            `json:"id"`
	Kind                  string            `json:"kind"`
	Description           string            `json:"description"`
	DescriptionIdentifier string            `json:"description_identifier"`
	DescriptionValues     map[string]string `json:"description_values"`
	PostalDelivery        *bool             `json:"postal_delivery"`
	ItemCosts             []models.ItemCost `json:"item_costs"`
	PostageCost           string            `json:"postage_cost"`
	TotalItemCost         string            `json:"total_item_cost"`
	Etag                  string            `json:"etag"`
}

// violations lists every read-only field the caller attempted to set.
func (f *ReadOnlyFields) violations() []string {
	var errs []string
	add := func(present bool, field string) {
		if present {
			errs = append(errs, field+": must be null")
		}
	}
	add(f.ID != "", "id")
	add(f.Kind != "", "kind")
	add(f.Description != "", "description")
	add(f.DescriptionIdentifier != "", "description_identifier")
	add(f.DescriptionValues != nil, "description_values")
	add(f.PostalDelivery != nil, "postal_delivery")
	add(f.ItemCosts != nil, "item_costs")
	add(f.PostageCost != "", "postage_cost")
	add(f.TotalItemCost != "", "total_item_cost")
	add(f.Etag != "", "etag")
	return errs
}

// ItemOptionsRequest carries the customer-settable certificate options.
// Pointer fields keep "absent vs explicit value" semantics precise for the
// enum options; the nullable fields additionally track explicit null so a
// merge-patch can clear them.
type ItemOptionsRequest struct {
	CertificateType    *models.CertificateType   `json:"certificate_type" validate:"omitempty,oneof=incorporation incorporation-with-all-name-changes incorporation-with-last-name-changes dissolution-liquidation"`
	DeliveryTimescale  *models.DeliveryTimescale `json:"delivery_timescale" validate:"omitempty,oneof=standard same-day"`
	DeliveryMethod     *models.DeliveryMethod    `json:"delivery_method" validate:"omitempty,oneof=postal collection"`
	CollectionLocation Nullable[string]          `json:"collection_location"`

	IncludeGoodStandingInformation            Nullable[bool] `json:"include_good_standing_information"`
	IncludeCompanyObjectsInformation          Nullable[bool] `json:"include_company_objects_information"`
	IncludeGeneralNatureOfBusinessInformation Nullable[bool] `json:"include_general_nature_of_business_information"`
}

// CreateCertificateItemRequest is the payload for POST /orderable/certificates.
type CreateCertificateItemRequest struct {
	ReadOnlyFields

	CompanyNumber     string              `json:"company_number" validate:"required"`
	CustomerReference string              `json:"customer_reference"`
	Quantity          *int                `json:"quantity" validate:"omitempty,gte=1"`
	ItemOptions       *ItemOptionsRequest `json:"item_options" validate:"required"`
}

// PatchCertificateItemRequest is the merge-patch payload for
// PATCH /orderable/certificates/{id}. Absent fields leave the stored item
// untouched.
type PatchCertificateItemRequest struct {
	ReadOnlyFields

	CompanyNumber     *string             `json:"company_number"`
	CustomerReference Nullable[string]    `json:"customer_reference"`
	Quantity          *int                `json:"quantity" validate:"omitempty,gte=1"`
	ItemOptions       *ItemOptionsRequest `json:"item_options"`
}

// ValidationError carries the itemized rule violations found for a request.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, "; ")
}

// CertificateItemValidator applies structural and cross-field business rules
// to create and patch payloads, collecting every violation as a
// "field: message" string before responding.
type CertificateItemValidator struct {
	validate *validator.Validate
}

// NewCertificateItemValidator constructs a CertificateItemValidator with
// field names reported from json tags so violations match the wire format.
func NewCertificateItemValidator() *CertificateItemValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &CertificateItemValidator{validate: v}
}

// ValidateCreate returns every violation for a create payload.
func (v *CertificateItemValidator) ValidateCreate(req *CreateCertificateItemRequest) []string {
	errs := req.violations()
	errs = append(errs, v.structural(req)...)

	if req.ItemOptions != nil {
		if req.ItemOptions.CertificateType == nil {
			errs = append(errs, "certificate_type: is required")
		}
		if req.ItemOptions.DeliveryTimescale == nil {
			errs = append(errs, "delivery_timescale: is required")
		}
		if req.ItemOptions.DeliveryMethod == nil {
			errs = append(errs, "delivery_method: is required")
		}
		errs = append(errs, CrossFieldErrors(req.ItemOptions.ToModel())...)
	}
	return errs
}

// ValidatePatch returns every structural violation for a patch payload.
// Cross-field rules run against the merged result, not the raw patch.
func (v *CertificateItemValidator) ValidatePatch(req *PatchCertificateItemRequest) []string {
	errs := req.violations()
	return append(errs, v.structural(req)...)
}

func (v *CertificateItemValidator) structural(payload any) []string {
	err := v.validate.Struct(payload)
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{"request: is invalid"}
	}
	errs := make([]string, 0, len(ve))
	for _, e := range ve {
		errs = append(errs, formatFieldError(e))
	}
	return errs
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s: is required", e.Field())
	case "gte":
		return fmt.Sprintf("%s: must be greater than or equal to %s", e.Field(), e.Param())
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s]", e.Field(), e.Param())
	default:
		return fmt.Sprintf("%s: is invalid", e.Field())
	}
}

// CrossFieldErrors applies the cross-field business rules to a set of item
// options. Nil options short-circuit: there is nothing to check against.
func CrossFieldErrors(opts *models.ItemOptions) []string {
	if opts == nil {
		return nil
	}

	var errs []string
	if opts.DeliveryMethod == models.DeliveryMethodCollection && opts.CollectionLocation == "" {
		errs = append(errs, "collection_location: must not be blank when delivery method is collection")
	}
	if opts.CertificateType == models.CertTypeDissolutionLiquidation {
		forbid := func(flag *bool, field string) {
			if flag != nil && *flag {
				errs = append(errs, field+": must not be true when certificate type is dissolution-liquidation")
			}
		}
		forbid(opts.IncludeGoodStandingInformation, "include_good_standing_information")
		forbid(opts.IncludeCompanyObjectsInformation, "include_company_objects_information")
		forbid(opts.IncludeGeneralNatureOfBusinessInformation, "include_general_nature_of_business_information")
	}
	return errs
}

// ToModel converts the request options into the entity representation.
func (o *ItemOptionsRequest) ToModel() *models.ItemOptions {
	if o == nil {
		return nil
	}
	opts := &models.ItemOptions{
		CollectionLocation:                        o.CollectionLocation.Value,
		IncludeGoodStandingInformation:            o.IncludeGoodStandingInformation.Ptr(),
		IncludeCompanyObjectsInformation:          o.IncludeCompanyObjectsInformation.Ptr(),
		IncludeGeneralNatureOfBusinessInformation: o.IncludeGeneralNatureOfBusinessInformation.Ptr(),
	}
	if o.CertificateType != nil {
		opts.CertificateType = *o.CertificateType
	}
	if o.DeliveryTimescale != nil {
		opts.DeliveryTimescale = *o.DeliveryTimescale
	}
	if o.DeliveryMethod != nil {
		opts.DeliveryMethod = *o.DeliveryMethod
	}
	return opts
}
