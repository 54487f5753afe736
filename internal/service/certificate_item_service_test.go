package service

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certhub/certificates_api/internal/config"
	"github.com/certhub/certificates_api/internal/models"
	"github.com/certhub/certificates_api/internal/utils"
	"github.com/certhub/certificates_api/pkg/companyprofile"
)

var certificateIDPattern = regexp.MustCompile(`^CRT-\d{6}-\d{6}$`)

type stubStore struct {
	items   map[string]*models.CertificateItem
	creates int
	updates int
}

func newStubStore() *stubStore {
	return &stubStore{items: map[string]*models.CertificateItem{}}
}

func (s *stubStore) Create(item *models.CertificateItem) error {
	s.creates++
	s.items[item.ID] = item.Clone()
	return nil
}

func (s *stubStore) Update(item *models.CertificateItem) error {
	s.updates++
	s.items[item.ID] = item.Clone()
	return nil
}

func (s *stubStore) FindByID(id string) (*models.CertificateItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return item.Clone(), nil
}

type stubProfiles struct {
	profile *companyprofile.Profile
	err     error
	calls   int
}

func (p *stubProfiles) Profile(_ context.Context, _ string) (*companyprofile.Profile, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.profile, nil
}

func newTestService(store *stubStore, profiles *stubProfiles) *CertificateItemService {
	return NewCertificateItemService(
		store,
		profiles,
		NewCostCalculator(testCostsConfig()),
		NewDescriptionProvider(),
		config.AuthConfig{OrdersRole: "orders", FreeCertsRole: "free-certs"},
		config.FeatureConfig{FreeCertificates: true},
	)
}

func TestCreateCertificateItem(t *testing.T) {
	store := newStubStore()
	profiles := &stubProfiles{profile: &companyprofile.Profile{
		CompanyName:   "THE GIRLS DAY SCHOOL TRUST",
		Type:          "ltd",
		CompanyStatus: "active",
	}}
	svc := newTestService(store, profiles)

	caller := callerWith(models.IdentityTypeOAuth2, "user-1", "orders")
	quantity := 3
	req := validCreateRequest()
	req.Quantity = &quantity
	req.CustomerReference = "order-42"

	item, err := svc.Create(context.Background(), req, caller)
	require.NoError(t, err)

	assert.Regexp(t, certificateIDPattern, item.ID)
	assert.Equal(t, "user-1", item.UserID)
	assert.Equal(t, models.KindCertificate, item.Kind)
	assert.Equal(t, "00006400", item.CompanyNumber)
	assert.Equal(t, "THE GIRLS DAY SCHOOL TRUST", item.CompanyName)
	assert.Equal(t, "order-42", item.CustomerReference)
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, "/orderable/certificates/"+item.ID, item.Links.Self)
	assert.Len(t, item.Etag, 40)
	assert.Equal(t, item.CreatedAt, item.UpdatedAt)
	assert.False(t, item.CreatedAt.IsZero())

	// Derived description fields
	assert.Equal(t, "certificate for company 00006400", item.Description)
	assert.Equal(t, "certificate", item.DescriptionIdentifier)
	assert.Equal(t, "00006400", item.DescriptionValues["company_number"])

	// Enrichment into options
	require.NotNil(t, item.ItemOptions)
	assert.Equal(t, "ltd", item.ItemOptions.CompanyType)
	assert.Equal(t, "active", item.ItemOptions.CompanyStatus)
	assert.True(t, item.PostalDelivery)

	// Priced representation
	require.Len(t, item.ItemCosts, 3)
	assert.Equal(t, "35", item.TotalItemCost)
	assert.Equal(t, "0", item.PostageCost)

	assert.Equal(t, 1, store.creates)
}

func TestCreateDefaultsQuantityToOne(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, &stubProfiles{profile: &companyprofile.Profile{CompanyName: "X"}})

	req := validCreateRequest()
	req.Quantity = nil

	item, err := svc.Create(context.Background(), req, callerWith(models.IdentityTypeOAuth2, "user-1", "orders"))
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)
	assert.Len(t, item.ItemCosts, 1)
}

func TestCreateFeeWaived(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, &stubProfiles{profile: &companyprofile.Profile{CompanyName: "X"}})

	quantity := 2
	req := validCreateRequest()
	req.Quantity = &quantity

	caller := callerWith(models.IdentityTypeOAuth2, "user-1", "orders", "free-certs")
	item, err := svc.Create(context.Background(), req, caller)
	require.NoError(t, err)

	assert.Equal(t, "0", item.TotalItemCost)
	for _, cost := range item.ItemCosts {
		assert.Equal(t, "0", cost.CalculatedCost)
	}
}

func TestCreateCompanyLookupFailures(t *testing.T) {
	t.Run("company not found", func(t *testing.T) {
		svc := newTestService(newStubStore(), &stubProfiles{err: companyprofile.ErrNotFound})
		_, err := svc.Create(context.Background(), validCreateRequest(), callerWith(models.IdentityTypeOAuth2, "user-1", "orders"))
		require.Error(t, err)
		assert.ErrorIs(t, err, utils.ErrCompanyNotFound)
		assert.Contains(t, err.Error(), "00006400")
	})

	t.Run("service unavailable", func(t *testing.T) {
		svc := newTestService(newStubStore(), &stubProfiles{err: companyprofile.ErrUnavailable})
		_, err := svc.Create(context.Background(), validCreateRequest(), callerWith(models.IdentityTypeOAuth2, "user-1", "orders"))
		assert.ErrorIs(t, err, utils.ErrCompanyService)
	})
}

func TestPatchCertificateItem(t *testing.T) {
	store := newStubStore()
	profiles := &stubProfiles{profile: &companyprofile.Profile{CompanyName: "X", Type: "ltd", CompanyStatus: "active"}}
	svc := newTestService(store, profiles)
	caller := callerWith(models.IdentityTypeOAuth2, "user-1", "orders")

	created, err := svc.Create(context.Background(), validCreateRequest(), caller)
	require.NoError(t, err)

	quantity := 5
	patched, err := svc.Patch(context.Background(), created.ID, &PatchCertificateItemRequest{
		Quantity:          &quantity,
		CustomerReference: NullableOf("ref-7"),
	}, caller)
	require.NoError(t, err)

	// Patched fields overwritten, absent fields untouched.
	assert.Equal(t, 5, patched.Quantity)
	assert.Equal(t, "ref-7", patched.CustomerReference)
	assert.Equal(t, created.CompanyNumber, patched.CompanyNumber)
	assert.Equal(t, created.ItemOptions.CertificateType, patched.ItemOptions.CertificateType)
	assert.Equal(t, created.CreatedAt, patched.CreatedAt)

	// Mutation bookkeeping.
	assert.NotEqual(t, created.Etag, patched.Etag)
	assert.False(t, patched.UpdatedAt.Before(created.UpdatedAt))
	assert.Len(t, patched.ItemCosts, 5)
	assert.Equal(t, 1, store.updates)
}

func TestPatchCompanyNumberRefreshesEnrichment(t *testing.T) {
	store := newStubStore()
	profiles := &stubProfiles{profile: &companyprofile.Profile{CompanyName: "FIRST LTD"}}
	svc := newTestService(store, profiles)
	caller := callerWith(models.IdentityTypeOAuth2, "user-1", "orders")

	created, err := svc.Create(context.Background(), validCreateRequest(), caller)
	require.NoError(t, err)
	require.Equal(t, 1, profiles.calls)

	profiles.profile = &companyprofile.Profile{CompanyName: "SECOND LTD", Type: "plc", CompanyStatus: "active"}
	newNumber := "12345678"
	patched, err := svc.Patch(context.Background(), created.ID, &PatchCertificateItemRequest{CompanyNumber: &newNumber}, caller)
	require.NoError(t, err)

	assert.Equal(t, 2, profiles.calls)
	assert.Equal(t, "12345678", patched.CompanyNumber)
	assert.Equal(t, "SECOND LTD", patched.CompanyName)
	assert.Equal(t, "plc", patched.ItemOptions.CompanyType)
	assert.Equal(t, "certificate for company 12345678", patched.Description)
	assert.Equal(t, "12345678", patched.DescriptionValues["company_number"])
}

func TestPatchMergedResultValidation(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, &stubProfiles{profile: &companyprofile.Profile{CompanyName: "X"}})
	caller := callerWith(models.IdentityTypeOAuth2, "user-1", "orders")

	created, err := svc.Create(context.Background(), validCreateRequest(), caller)
	require.NoError(t, err)

	// Switching to collection without a location breaks a cross-field rule on
	// the merged result.
	collection := models.DeliveryMethodCollection
	_, err = svc.Patch(context.Background(), created.ID, &PatchCertificateItemRequest{
		ItemOptions: &ItemOptionsRequest{DeliveryMethod: &collection},
	}, caller)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Errors, "collection_location: must not be blank when delivery method is collection")
	assert.Equal(t, 0, store.updates)
}

func TestPatchExplicitNullClearsFields(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, &stubProfiles{profile: &companyprofile.Profile{CompanyName: "X"}})
	caller := callerWith(models.IdentityTypeOAuth2, "user-1", "orders")

	req := validCreateRequest()
	req.CustomerReference = "ref-1"
	req.ItemOptions.IncludeGoodStandingInformation = NullableOf(true)
	created, err := svc.Create(context.Background(), req, caller)
	require.NoError(t, err)
	require.NotNil(t, created.ItemOptions.IncludeGoodStandingInformation)

	// Explicit nulls on the wire clear the stored values; absent fields stay.
	var patch PatchCertificateItemRequest
	body := `{"customer_reference":null,"item_options":{"include_good_standing_information":null}}`
	require.NoError(t, json.Unmarshal([]byte(body), &patch))

	patched, err := svc.Patch(context.Background(), created.ID, &patch, caller)
	require.NoError(t, err)

	assert.Empty(t, patched.CustomerReference)
	assert.Nil(t, patched.ItemOptions.IncludeGoodStandingInformation)
	assert.Equal(t, created.Quantity, patched.Quantity)
	assert.Equal(t, created.CompanyNumber, patched.CompanyNumber)
}

func TestPatchNullCollectionLocation(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, &stubProfiles{profile: &companyprofile.Profile{CompanyName: "X"}})
	caller := callerWith(models.IdentityTypeOAuth2, "user-1", "orders")

	req := validCreateRequest()
	method := models.DeliveryMethodCollection
	req.ItemOptions.DeliveryMethod = &method
	req.ItemOptions.CollectionLocation = NullableOf("cardiff")
	created, err := svc.Create(context.Background(), req, caller)
	require.NoError(t, err)

	// Nulling the location while the method is still collection breaks the
	// cross-field rule on the merged result.
	var patch PatchCertificateItemRequest
	require.NoError(t, json.Unmarshal([]byte(`{"item_options":{"collection_location":null}}`), &patch))

	_, err = svc.Patch(context.Background(), created.ID, &patch, caller)
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Errors, "collection_location: must not be blank when delivery method is collection")
	assert.Equal(t, 0, store.updates)
}

func TestCreatePostalDeliveryByKind(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, &stubProfiles{profile: &companyprofile.Profile{CompanyName: "X"}})

	req := validCreateRequest()
	method := models.DeliveryMethodCollection
	req.ItemOptions.DeliveryMethod = &method
	req.ItemOptions.CollectionLocation = NullableOf("cardiff")

	item, err := svc.Create(context.Background(), req, callerWith(models.IdentityTypeOAuth2, "user-1", "orders"))
	require.NoError(t, err)

	// Postal delivery is a property of the item kind, not the delivery method.
	assert.True(t, item.PostalDelivery)
}

func TestPatchNotFound(t *testing.T) {
	svc := newTestService(newStubStore(), &stubProfiles{})
	_, err := svc.Patch(context.Background(), "CRT-000000-000000", &PatchCertificateItemRequest{}, callerWith(models.IdentityTypeOAuth2, "user-1", "orders"))
	assert.ErrorIs(t, err, utils.ErrCertificateNotFound)
}

func TestGetWithCosts(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, &stubProfiles{profile: &companyprofile.Profile{CompanyName: "X"}})
	caller := callerWith(models.IdentityTypeOAuth2, "user-1", "orders")

	quantity := 2
	req := validCreateRequest()
	req.Quantity = &quantity
	created, err := svc.Create(context.Background(), req, caller)
	require.NoError(t, err)

	first, err := svc.GetWithCosts(created.ID, caller)
	require.NoError(t, err)
	second, err := svc.GetWithCosts(created.ID, caller)
	require.NoError(t, err)

	// Pure projection: identical without intervening mutation.
	assert.Equal(t, first, second)
	assert.Equal(t, "25", first.TotalItemCost)

	// Round trip preserves the client-set fields.
	assert.Equal(t, created.CompanyNumber, first.CompanyNumber)
	assert.Equal(t, created.Quantity, first.Quantity)
	assert.Equal(t, created.ItemOptions, first.ItemOptions)

	// The plain read skips cost projection.
	plain, err := svc.Get(created.ID)
	require.NoError(t, err)
	assert.Empty(t, plain.ItemCosts)
	assert.Empty(t, plain.TotalItemCost)
}

func TestGetNotFound(t *testing.T) {
	svc := newTestService(newStubStore(), &stubProfiles{})
	_, err := svc.GetWithCosts("CRT-000000-000000", callerWith(models.IdentityTypeOAuth2, "user-1", "orders"))
	assert.ErrorIs(t, err, utils.ErrCertificateNotFound)
}
