package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/certhub/certificates_api/internal/config"
	"github.com/certhub/certificates_api/internal/models"
	"github.com/certhub/certificates_api/internal/utils"
	"github.com/certhub/certificates_api/pkg/companyprofile"
)

// CompanyProfileGetter looks up a company profile by company number.
type CompanyProfileGetter interface {
	Profile(ctx context.Context, companyNumber string) (*companyprofile.Profile, error)
}

// CertificateItemStore is the persistence collaborator for certificate items.
// FindByID returns (nil, nil) when the id has no matching item.
type CertificateItemStore interface {
	Create(item *models.CertificateItem) error
	Update(item *models.CertificateItem) error
	FindByID(id string) (*models.CertificateItem, error)
}

// CompanyNotFoundError reports a company number the profile service does not
// recognise. It unwraps to utils.ErrCompanyNotFound.
type CompanyNotFoundError struct {
	CompanyNumber string
}

func (e *CompanyNotFoundError) Error() string {
	return fmt.Sprintf("company %s not found", e.CompanyNumber)
}

func (e *CompanyNotFoundError) Unwrap() error {
	return utils.ErrCompanyNotFound
}

// CertificateItemService orchestrates creation, update, and retrieval of
// certificate items: identifier and etag assignment, timestamps, description
// derivation, company enrichment, cost projection, and persistence.
type CertificateItemService struct {
	store        CertificateItemStore
	profiles     CompanyProfileGetter
	calculator   *CostCalculator
	descriptions *DescriptionProvider
	auth         config.AuthConfig
	features     config.FeatureConfig
}

// NewCertificateItemService constructs a CertificateItemService.
func NewCertificateItemService(
	store CertificateItemStore,
	profiles CompanyProfileGetter,
	calculator *CostCalculator,
	descriptions *DescriptionProvider,
	auth config.AuthConfig,
	features config.FeatureConfig,
) *CertificateItemService {
	return &CertificateItemService{
		store:        store,
		profiles:     profiles,
		calculator:   calculator,
		descriptions: descriptions,
		auth:         auth,
		features:     features,
	}
}

// Create builds, enriches, and persists a new certificate item for the
// caller, then returns the priced representation. Costs are recomputed after
// the write so they always reflect the current configured prices.
func (s *CertificateItemService) Create(ctx context.Context, req *CreateCertificateItemRequest, caller *models.Caller) (*models.CertificateItem, error) {
	now := time.Now().UTC()

	item := &models.CertificateItem{
		UserID:            caller.Identity,
		CompanyNumber:     req.CompanyNumber,
		CustomerReference: req.CustomerReference,
		Quantity:          1,
		Kind:              models.KindCertificate,
		ItemOptions:       req.ItemOptions.ToModel(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}

	if err := s.enrich(ctx, item); err != nil {
		return nil, err
	}
	s.derive(item)

	id, err := utils.GenerateCertificateID()
	if err != nil {
		return nil, err
	}
	item.ID = id
	item.Links = models.Links{Self: SelfLink(id)}

	if item.Etag, err = utils.GenerateEtag(); err != nil {
		return nil, err
	}

	if err := s.store.Create(item); err != nil {
		return nil, err
	}

	if err := s.projectCosts(item, caller); err != nil {
		return nil, err
	}
	return item, nil
}

// Patch applies merge-patch semantics to an existing item: absent fields are
// untouched, present fields overwrite. Description fields are re-derived,
// the etag regenerated, updated_at refreshed, and costs recomputed on the
// returned representation.
func (s *CertificateItemService) Patch(ctx context.Context, id string, req *PatchCertificateItemRequest, caller *models.Caller) (*models.CertificateItem, error) {
	existing, err := s.store.FindByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, utils.ErrCertificateNotFound
	}

	merged := existing.Clone()
	companyChanged := applyPatch(merged, req)

	// Company attributes are denormalised, so a company-number change
	// refreshes the enrichment.
	if companyChanged {
		if err := s.enrich(ctx, merged); err != nil {
			return nil, err
		}
	}

	if errs := CrossFieldErrors(merged.ItemOptions); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	s.derive(merged)
	merged.UpdatedAt = time.Now().UTC()
	if merged.Etag, err = utils.GenerateEtag(); err != nil {
		return nil, err
	}

	if err := s.store.Update(merged); err != nil {
		return nil, err
	}

	if err := s.projectCosts(merged, caller); err != nil {
		return nil, err
	}
	return merged, nil
}

// Get returns the stored item without cost projection. Used where prices are
// not needed, e.g. ownership checks.
func (s *CertificateItemService) Get(id string) (*models.CertificateItem, error) {
	item, err := s.store.FindByID(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, utils.ErrCertificateNotFound
	}
	return item, nil
}

// GetWithCosts returns the stored item with costs computed on the fly, so
// configuration price changes are reflected without rewriting history.
func (s *CertificateItemService) GetWithCosts(id string, caller *models.Caller) (*models.CertificateItem, error) {
	item, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.projectCosts(item, caller); err != nil {
		return nil, err
	}
	return item, nil
}

// enrich denormalises company name, type, and status from the company
// profile service. Lookup failures are translated at this boundary, never
// propagated raw.
func (s *CertificateItemService) enrich(ctx context.Context, item *models.CertificateItem) error {
	profile, err := s.profiles.Profile(ctx, item.CompanyNumber)
	if err != nil {
		if errors.Is(err, companyprofile.ErrNotFound) {
			return &CompanyNotFoundError{CompanyNumber: item.CompanyNumber}
		}
		return fmt.Errorf("%w: %v", utils.ErrCompanyService, err)
	}

	item.CompanyName = profile.CompanyName
	if item.ItemOptions != nil {
		item.ItemOptions.CompanyType = profile.Type
		item.ItemOptions.CompanyStatus = profile.CompanyStatus
	}
	return nil
}

// derive recomputes the read-only fields that depend on mutable attributes.
func (s *CertificateItemService) derive(item *models.CertificateItem) {
	item.Description, item.DescriptionIdentifier, item.DescriptionValues =
		s.descriptions.CertificateDescription(item.CompanyNumber)

	item.PostalDelivery = models.PostalDeliveryForKind(item.Kind)
}

// projectCosts attaches the priced view to the item. Pure projection of the
// stored fields and the cost configuration; stored cost data is never
// trusted.
func (s *CertificateItemService) projectCosts(item *models.CertificateItem, caller *models.Caller) error {
	if item.ItemOptions == nil {
		return fmt.Errorf("%w: item %s has no options", utils.ErrInvalidArgument, item.ID)
	}

	feeWaived := s.features.FreeCertificates && caller.HasRole(s.auth.FreeCertsRole)
	calc, err := s.calculator.Calculate(item.Quantity, item.ItemOptions.DeliveryTimescale, feeWaived)
	if err != nil {
		return err
	}

	item.ItemCosts = calc.ItemCosts
	item.PostageCost = calc.PostageCost
	item.TotalItemCost = calc.TotalItemCost
	return nil
}

// applyPatch overwrites the fields explicitly present in the patch, field by
// field, and reports whether the company number changed. An explicit null on
// a nullable field clears the stored value; absent fields stay untouched.
func applyPatch(item *models.CertificateItem, req *PatchCertificateItemRequest) (companyChanged bool) {
	if req.CompanyNumber != nil && *req.CompanyNumber != item.CompanyNumber {
		item.CompanyNumber = *req.CompanyNumber
		companyChanged = true
	}
	if req.CustomerReference.Set {
		item.CustomerReference = req.CustomerReference.Value
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.ItemOptions == nil {
		return companyChanged
	}

	if item.ItemOptions == nil {
		item.ItemOptions = &models.ItemOptions{}
	}
	opts := item.ItemOptions
	patch := req.ItemOptions

	if patch.CertificateType != nil {
		opts.CertificateType = *patch.CertificateType
	}
	if patch.DeliveryTimescale != nil {
		opts.DeliveryTimescale = *patch.DeliveryTimescale
	}
	if patch.DeliveryMethod != nil {
		opts.DeliveryMethod = *patch.DeliveryMethod
	}
	if patch.CollectionLocation.Set {
		opts.CollectionLocation = patch.CollectionLocation.Value
	}
	if patch.IncludeGoodStandingInformation.Set {
		opts.IncludeGoodStandingInformation = patch.IncludeGoodStandingInformation.Ptr()
	}
	if patch.IncludeCompanyObjectsInformation.Set {
		opts.IncludeCompanyObjectsInformation = patch.IncludeCompanyObjectsInformation.Ptr()
	}
	if patch.IncludeGeneralNatureOfBusinessInformation.Set {
		opts.IncludeGeneralNatureOfBusinessInformation = patch.IncludeGeneralNatureOfBusinessInformation.Ptr()
	}
	return companyChanged
}

// SelfLink returns the canonical resource URI for a certificate item id.
func SelfLink(id string) string {
	return "/orderable/certificates/" + id
}
