package adjustments

import (
	"github.com/shopspring/decimal"

	"github.com/manageitwa/payg-tax/payg"
)

const KindTaxOffset = "tax_offset"

// TaxOffset is a placeholder for offsets claimed on a withholding
// declaration. It is always eligible and contributes nothing; concrete
// offsets replace it.
type TaxOffset struct{}

func NewTaxOffset() *TaxOffset { return &TaxOffset{} }

func (TaxOffset) Kind() string { return KindTaxOffset }

func (TaxOffset) Eligible(payg.Employer, payg.Worker, payg.Scale, payg.Payment) bool {
	return true
}

func (TaxOffset) Amount(payg.Employer, payg.Worker, payg.Scale, payg.Payment) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

var _ payg.Adjustment = TaxOffset{}
