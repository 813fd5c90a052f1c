package model

import (
	"fmt"
	"strconv"
	"time"
)

// LegalForm is the client's registered legal form.
type LegalForm string

// Legal form constants.
const (
	LegalFormIndividual LegalForm = "individual"
	LegalFormCompany    LegalForm = "company"
)

// TaxRegime is the client's tax regime.
type TaxRegime string

// Tax regime constants.
const (
	TaxRegimeGeneral    TaxRegime = "general"
	TaxRegimeSimplified TaxRegime = "simplified"
)

// Profile field names usable in rule applicability conditions.
const (
	FieldClientID      = "client_id"
	FieldLegalForm     = "legal_form"
	FieldTaxRegime     = "tax_regime"
	FieldVATPayer      = "vat_payer"
	FieldHasEmployees  = "has_employees"
	FieldProfitAdvance = "profit_advance"
)

// ClientProfile is a read-only snapshot of one client as the CRUD layer
// last saved it. The engine consumes profiles, it never mutates them.
type ClientProfile struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	LegalForm     LegalForm   `json:"legal_form"`
	TaxRegime     TaxRegime   `json:"tax_regime"`
	VATPayer      bool        `json:"vat_payer"`
	HasEmployees  bool        `json:"has_employees"`
	ProfitAdvance Periodicity `json:"profit_advance"`
}

// Field returns the string form of a named profile field for condition
// evaluation. Booleans render as "true"/"false".
func (p ClientProfile) Field(name string) (string, error) {
	switch name {
	case FieldClientID:
		return p.ID, nil
	case FieldLegalForm:
		return string(p.LegalForm), nil
	case FieldTaxRegime:
		return string(p.TaxRegime), nil
	case FieldVATPayer:
		return strconv.FormatBool(p.VATPayer), nil
	case FieldHasEmployees:
		return strconv.FormatBool(p.HasEmployees), nil
	case FieldProfitAdvance:
		return string(p.ProfitAdvance), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrConditionBadField, name)
	}
}

// ProfileChange records that a client's profile changed with effect from a
// given date. Changes are consumed at-least-once: reconciliation must stay
// a no-op when a change is replayed.
type ProfileChange struct {
	ID            int64      `json:"id"`
	ClientID      string     `json:"client_id"`
	EffectiveDate time.Time  `json:"effective_date"`
	CreatedAt     time.Time  `json:"created_at"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}
