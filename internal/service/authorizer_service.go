package service

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/certhub/certificates_api/internal/models"
)

// AuthDecision is the outcome of an authorization check.
type AuthDecision int

const (
	DecisionDenied AuthDecision = iota
	DecisionAllowed
	DecisionNotFound
)

// CertificateItemFinder loads a stored item for ownership checks. The plain
// read is used here deliberately: recomputing costs for an authorization
// check would be wasted work.
type CertificateItemFinder interface {
	FindByID(id string) (*models.CertificateItem, error)
}

// AuthorizerService decides whether an inbound request may proceed. Two gates
// apply in order: the caller must hold the orders permission role, and the
// identity-type specific rules must pass.
type AuthorizerService struct {
	items      CertificateItemFinder
	ordersRole string
}

// NewAuthorizerService constructs an AuthorizerService.
func NewAuthorizerService(items CertificateItemFinder, ordersRole string) *AuthorizerService {
	return &AuthorizerService{items: items, ordersRole: ordersRole}
}

// Authorize evaluates the two gates for the given caller, HTTP verb, and
// target item id (empty for collection-level requests). It returns a
// non-nil error only for infrastructure failures; authorization outcomes are
// expressed through the decision.
func (s *AuthorizerService) Authorize(caller *models.Caller, method, itemID string) (AuthDecision, error) {
	if caller == nil {
		return DecisionDenied, nil
	}

	// 1. Coarse-grained permission gate: the orders role is required for the
	// whole resource family, regardless of identity type.
	if !caller.HasRole(s.ordersRole) {
		return DecisionDenied, nil
	}

	// 2. Fine-grained identity/ownership gate.
	switch caller.IdentityType {
	case models.IdentityTypeKey:
		// API-key callers are read-only.
		if method == http.MethodGet {
			return DecisionAllowed, nil
		}
		return DecisionDenied, nil

	case models.IdentityTypeOAuth2:
		// Creation is open to any authenticated user; everything else
		// requires ownership of the target resource.
		if method == http.MethodPost {
			return DecisionAllowed, nil
		}
		return s.checkOwnership(caller, itemID)

	default:
		log.Warn().
			Str("identity_type", string(caller.IdentityType)).
			Msg("unrecognized identity type")
		return DecisionDenied, nil
	}
}

// checkOwnership loads the target item and permits only an exact owner match.
// A missing item is a distinct not-found outcome, not an authorization
// failure.
func (s *AuthorizerService) checkOwnership(caller *models.Caller, itemID string) (AuthDecision, error) {
	item, err := s.items.FindByID(itemID)
	if err != nil {
		return DecisionDenied, err
	}
	if item == nil {
		return DecisionNotFound, nil
	}
	// Every certificate must have an owner; an unowned item is never served.
	if item.UserID == "" {
		return DecisionDenied, nil
	}
	if item.UserID != caller.Identity {
		return DecisionDenied, nil
	}
	return DecisionAllowed, nil
}
