package partner

import (
	"context"
)

// TaxIDType enumerates the fiscal document kinds a client can present.
// The stored value on a matched client overrides whatever the user had
// selected; the type is advisory, the value is the lookup key.
type TaxIDType string

const (
	TaxIDTypeDNI      TaxIDType = "DNI"       // national identity document
	TaxIDTypeRUC      TaxIDType = "RUC"       // business registration number
	TaxIDTypeCE       TaxIDType = "CE"        // foreign resident card
	TaxIDTypePassport TaxIDType = "Pasaporte" // passport
)

// IsValid checks if the value is a known tax identifier type
func (t TaxIDType) IsValid() bool {
	switch t {
	case TaxIDTypeDNI, TaxIDTypeRUC, TaxIDTypeCE, TaxIDTypePassport:
		return true
	}
	return false
}

// String returns the string representation of TaxIDType
func (t TaxIDType) String() string {
	return string(t)
}

// Client is a customer-directory record. Lookups match on the tax
// identifier value only.
type Client struct {
	TaxIDType TaxIDType
	TaxID     string
	Name      string
	Email     string
	Phone     string
	Address   string
	Company   string
}

// Directory is the read-side port over the remote customer-directory table.
type Directory interface {
	// FindByTaxID returns the active client whose tax identifier value
	// matches exactly, or shared.ErrNotFound.
	FindByTaxID(ctx context.Context, taxID string) (*Client, error)
}
