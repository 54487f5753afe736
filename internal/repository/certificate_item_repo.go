package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/certhub/certificates_api/internal/models"
)

// CertificateItemRepository provides data access methods for the
// certificate_items table. Nested documents (item options, description values,
// links) are stored as JSONB columns.
type CertificateItemRepository struct {
	db *sqlx.DB
}

// NewCertificateItemRepository creates a new CertificateItemRepository.
func NewCertificateItemRepository(db *sqlx.DB) *CertificateItemRepository {
	return &CertificateItemRepository{db: db}
}

// Create inserts a new certificate item. The caller is responsible for having
// assigned id, timestamps, and etag.
func (r *CertificateItemRepository) Create(item *models.CertificateItem) error {
	options, values, links, err := marshalNested(item)
	if err != nil {
		return err
	}

	query := `INSERT INTO certificate_items
		(id, user_id, company_number, company_name, customer_reference, quantity,
		 kind, description, description_identifier, description_values,
		 item_options, links, postal_delivery, etag, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err = r.db.Exec(query,
		item.ID,
		item.UserID,
		item.CompanyNumber,
		item.CompanyName,
		item.CustomerReference,
		item.Quantity,
		item.Kind,
		item.Description,
		item.DescriptionIdentifier,
		values,
		options,
		links,
		item.PostalDelivery,
		item.Etag,
		item.CreatedAt,
		item.UpdatedAt,
	)
	return err
}

// Update overwrites the mutable columns of an existing certificate item.
func (r *CertificateItemRepository) Update(item *models.CertificateItem) error {
	options, values, links, err := marshalNested(item)
	if err != nil {
		return err
	}

	query := `UPDATE certificate_items
		SET company_number = $1, company_name = $2, customer_reference = $3,
		    quantity = $4, description = $5, description_identifier = $6,
		    description_values = $7, item_options = $8, links = $9,
		    postal_delivery = $10, etag = $11, updated_at = $12
		WHERE id = $13`

	res, err := r.db.Exec(query,
		item.CompanyNumber,
		item.CompanyName,
		item.CustomerReference,
		item.Quantity,
		item.Description,
		item.DescriptionIdentifier,
		values,
		options,
		links,
		item.PostalDelivery,
		item.Etag,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("certificate item %s does not exist", item.ID)
	}
	return nil
}

// FindByID retrieves a certificate item by id. A missing item is a
// non-exceptional outcome and returns (nil, nil).
func (r *CertificateItemRepository) FindByID(id string) (*models.CertificateItem, error) {
	query := `SELECT id, user_id, company_number, company_name, customer_reference,
		quantity, kind, description, description_identifier, description_values,
		item_options, links, postal_delivery, etag, created_at, updated_at
		FROM certificate_items WHERE id = $1`

	row := r.db.QueryRowx(query, id)

	var item models.CertificateItem
	var values, options, links []byte
	// Explicit scan so the JSONB columns can be unmarshalled into their
	// nested structs.
	if err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.CompanyNumber,
		&item.CompanyName,
		&item.CustomerReference,
		&item.Quantity,
		&item.Kind,
		&item.Description,
		&item.DescriptionIdentifier,
		&values,
		&options,
		&links,
		&item.PostalDelivery,
		&item.Etag,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if err := unmarshalNested(&item, options, values, links); err != nil {
		return nil, err
	}
	return &item, nil
}

func marshalNested(item *models.CertificateItem) (options, values, links []byte, err error) {
	if item.ItemOptions != nil {
		if options, err = json.Marshal(item.ItemOptions); err != nil {
			return nil, nil, nil, err
		}
	}
	if item.DescriptionValues != nil {
		if values, err = json.Marshal(item.DescriptionValues); err != nil {
			return nil, nil, nil, err
		}
	}
	if links, err = json.Marshal(item.Links); err != nil {
		return nil, nil, nil, err
	}
	return options, values, links, nil
}

func unmarshalNested(item *models.CertificateItem, options, values, links []byte) error {
	if len(options) > 0 {
		item.ItemOptions = &models.ItemOptions{}
		if err := json.Unmarshal(options, item.ItemOptions); err != nil {
			return err
		}
	}
	if len(values) > 0 {
		if err := json.Unmarshal(values, &item.DescriptionValues); err != nil {
			return err
		}
	}
	if len(links) > 0 {
		if err := json.Unmarshal(links, &item.Links); err != nil {
			return err
		}
	}
	return nil
}
