/*
Package ledger implements the opaque per-cell sinks spec.md §4.15/§6
describes: an invariant sink (basis-independent: dates, premiums,
specamt, MEC status, strings) and a per-basis variant sink (BOY charge
and load vectors, EOY account-value and benefit vectors, scalar rate
summaries). Both expose PlusEq for composite aggregation across a
census run.

GROUNDED ON:
  generic/ledger.go's append-only Ledger with idempotent accumulation
  (a Transaction is recorded once; replays produce the same Balance).
  LedgerInvariant/LedgerVariant generalize that idempotent-accumulation
  idea from "replay transactions into a balance" to "accumulate
  per-cell scalar/vector summaries into a census composite" — PlusEq is
  the ledger's accumulation operator, the same role generic/ledger.go's
  transaction replay plays for Balance, but summed directly instead of
  replayed from a transaction log (the engine already rounds and
  finalizes these vectors once per cell; there is nothing left to
  replay).
*/
package ledger

import (
	"fmt"

	"github.com/soa-illustrations/lmi/basis"
	"github.com/soa-illustrations/lmi/currency"
)

// Invariant is the basis-independent per-cell ledger sink: dates,
// premiums, specamt, MEC status, and identifying strings.
type Invariant struct {
	IssueAge    int
	IssueDateJDN int64

	IsMec    bool
	MecYear  int
	MecMonth int

	SpecAmt             []currency.Amount
	TermSpecAmt         []currency.Amount
	Payments            []currency.Amount
	Withdrawals         []currency.Amount
	Loans               []currency.Amount
	Outlay              []currency.Amount
	GPTForceout         []currency.Amount
	ProducerCompensation []currency.Amount

	ProductName  string
	InsuredName  string
	ProducerName string
}

// NewInvariant allocates an Invariant with all vectors of length n
// (years to maturity), zeroed.
func NewInvariant(n int) *Invariant {
	mk := func() []currency.Amount { return make([]currency.Amount, n) }
	return &Invariant{
		SpecAmt:              mk(),
		TermSpecAmt:          mk(),
		Payments:             mk(),
		Withdrawals:          mk(),
		Loans:                mk(),
		Outlay:               mk(),
		GPTForceout:          mk(),
		ProducerCompensation: mk(),
	}
}

// SetYear writes one policy year's scalar figures, per spec.md §4.15's
// "per-year setters for a fixed schema." Values must already be rounded
// by the caller.
func (inv *Invariant) SetYear(y int, specAmt, termSpecAmt, payment, withdrawal, loan, outlay, gptForceout, producerComp currency.Amount) error {
	if y < 0 || y >= len(inv.SpecAmt) {
		return fmt.Errorf("ledger: policy year %d out of range [0,%d)", y, len(inv.SpecAmt))
	}
	inv.SpecAmt[y] = specAmt
	inv.TermSpecAmt[y] = termSpecAmt
	inv.Payments[y] = payment
	inv.Withdrawals[y] = withdrawal
	inv.Loans[y] = loan
	inv.Outlay[y] = outlay
	inv.GPTForceout[y] = gptForceout
	inv.ProducerCompensation[y] = producerComp
	return nil
}

// SetMec records the (first) MEC transition.
func (inv *Invariant) SetMec(year, month int) {
	if inv.IsMec {
		return
	}
	inv.IsMec = true
	inv.MecYear = year
	inv.MecMonth = month
}

// PlusEq accumulates another cell's invariant ledger into this one,
// element-wise, for composite (census-level) aggregation. Scalars that
// are cell-specific (MEC status, issue age, strings) are NOT summed;
// PlusEq is only meaningful on a composite accumulator that starts from
// a fresh zero value and never reads those scalar fields back.
func (inv *Invariant) PlusEq(other *Invariant) error {
	if len(inv.SpecAmt) == 0 {
		*inv = *NewInvariant(len(other.SpecAmt))
	}
	if len(inv.SpecAmt) != len(other.SpecAmt) {
		return fmt.Errorf("ledger: invariant vector length mismatch (%d vs %d)", len(inv.SpecAmt), len(other.SpecAmt))
	}
	for y := range inv.SpecAmt {
		inv.SpecAmt[y] = inv.SpecAmt[y].Add(other.SpecAmt[y])
		inv.TermSpecAmt[y] = inv.TermSpecAmt[y].Add(other.TermSpecAmt[y])
		inv.Payments[y] = inv.Payments[y].Add(other.Payments[y])
		inv.Withdrawals[y] = inv.Withdrawals[y].Add(other.Withdrawals[y])
		inv.Loans[y] = inv.Loans[y].Add(other.Loans[y])
		inv.Outlay[y] = inv.Outlay[y].Add(other.Outlay[y])
		inv.GPTForceout[y] = inv.GPTForceout[y].Add(other.GPTForceout[y])
		inv.ProducerCompensation[y] = inv.ProducerCompensation[y].Add(other.ProducerCompensation[y])
	}
	return nil
}

// Variant is the per-basis per-cell ledger sink: BOY charge/load
// vectors, EOY account-value/benefit vectors, and scalar rate summaries.
type Variant struct {
	Basis basis.GenBasis

	// BOY (beginning-of-year) vectors.
	COICharge      []currency.Amount
	RiderCharge    []currency.Amount
	PolicyFee      []currency.Amount
	SalesLoad      []currency.Amount
	PremiumTaxLoad []currency.Amount
	DACTaxLoad     []currency.Amount
	SALoad         []currency.Amount
	InterestCreditedNet   []currency.Amount
	InterestCreditedGross []currency.Amount
	LoanInterestAccrued   []currency.Amount
	Claims                []currency.Amount

	// EOY (end-of-year) vectors.
	AVTotal     []currency.Amount
	AVGen       []currency.Amount
	AVSep       []currency.Amount
	CSV         []currency.Amount
	CV7702      []currency.Amount
	DB          []currency.Amount
	LoanBalance []currency.Amount
	TermPurchased []currency.Amount
	BaseDB        []currency.Amount
	TaxBasis      []currency.Amount // cumulative premium less withdrawals, for the 7702A basis-vs-gain split and tax_basis solve targets

	AnnualGenRate []float64
	AnnualSepRate []float64

	LapseMonth int
	LapseYear  int

	InitAnnLoanCredRate   float64
	InitAnnGenAcctInt     float64
	InitAnnSepAcctGrossInt float64
	InitAnnSepAcctNetInt   float64
	InitTgtPremHiLoadRate  float64
	InitMlyPolFee          currency.Amount

	finalized bool
}

// NewVariant allocates a Variant with all vectors of length n, zeroed.
func NewVariant(b basis.GenBasis, n int) *Variant {
	mk := func() []currency.Amount { return make([]currency.Amount, n) }
	mkf := func() []float64 { return make([]float64, n) }
	return &Variant{
		Basis:                 b,
		COICharge:             mk(),
		RiderCharge:           mk(),
		PolicyFee:             mk(),
		SalesLoad:             mk(),
		PremiumTaxLoad:        mk(),
		DACTaxLoad:            mk(),
		SALoad:                mk(),
		InterestCreditedNet:   mk(),
		InterestCreditedGross: mk(),
		LoanInterestAccrued:   mk(),
		Claims:                mk(),
		AVTotal:               mk(),
		AVGen:                 mk(),
		AVSep:                 mk(),
		CSV:                   mk(),
		CV7702:                mk(),
		DB:                    mk(),
		LoanBalance:           mk(),
		TermPurchased:         mk(),
		BaseDB:                mk(),
		TaxBasis:              mk(),
		AnnualGenRate:         mkf(),
		AnnualSepRate:         mkf(),
		LapseMonth:            -1,
		LapseYear:             -1,
	}
}

// SetBOY writes one policy year's beginning-of-year charge and load
// figures.
func (v *Variant) SetBOY(y int, coi, rider, policyFee, sales, premTax, dacTax, sa, intNet, intGross, loanInt, claims currency.Amount) error {
	if y < 0 || y >= len(v.COICharge) {
		return fmt.Errorf("ledger: policy year %d out of range [0,%d)", y, len(v.COICharge))
	}
	v.COICharge[y] = coi
	v.RiderCharge[y] = rider
	v.PolicyFee[y] = policyFee
	v.SalesLoad[y] = sales
	v.PremiumTaxLoad[y] = premTax
	v.DACTaxLoad[y] = dacTax
	v.SALoad[y] = sa
	v.InterestCreditedNet[y] = intNet
	v.InterestCreditedGross[y] = intGross
	v.LoanInterestAccrued[y] = loanInt
	v.Claims[y] = claims
	return nil
}

// SetEOY writes one policy year's end-of-year account-value and
// benefit figures, plus that year's realized annual rates.
func (v *Variant) SetEOY(y int, avTotal, avGen, avSep, csv, cv7702, db, loanBal, termPurchased, baseDB currency.Amount, annualGenRate, annualSepRate float64) error {
	if y < 0 || y >= len(v.AVTotal) {
		return fmt.Errorf("ledger: policy year %d out of range [0,%d)", y, len(v.AVTotal))
	}
	v.AVTotal[y] = avTotal
	v.AVGen[y] = avGen
	v.AVSep[y] = avSep
	v.CSV[y] = csv
	v.CV7702[y] = cv7702
	v.DB[y] = db
	v.LoanBalance[y] = loanBal
	v.TermPurchased[y] = termPurchased
	v.BaseDB[y] = baseDB
	v.AnnualGenRate[y] = annualGenRate
	v.AnnualSepRate[y] = annualSepRate
	return nil
}

// SetTaxBasis writes one policy year's end-of-year tax basis, recorded
// separately from SetEOY since the engine derives it from a running
// premium-less-withdrawal accumulator rather than the account-value
// snapshot the other EOY figures share.
func (v *Variant) SetTaxBasis(y int, taxBasis currency.Amount) error {
	if y < 0 || y >= len(v.TaxBasis) {
		return fmt.Errorf("ledger: policy year %d out of range [0,%d)", y, len(v.TaxBasis))
	}
	v.TaxBasis[y] = taxBasis
	return nil
}

// SetLapse records the month/year a lapse occurred in.
func (v *Variant) SetLapse(year, month int) {
	v.LapseYear = year
	v.LapseMonth = month
}

// Finalize records this basis-run's initial-condition scalars and marks
// the sink closed to further per-year writes (spec.md §4.15: "a final-
// initialization call from a basis-run").
func (v *Variant) Finalize(initAnnLoanCredRate, initAnnGenAcctInt, initAnnSepAcctGrossInt, initAnnSepAcctNetInt, initTgtPremHiLoadRate float64, initMlyPolFee currency.Amount) {
	v.InitAnnLoanCredRate = initAnnLoanCredRate
	v.InitAnnGenAcctInt = initAnnGenAcctInt
	v.InitAnnSepAcctGrossInt = initAnnSepAcctGrossInt
	v.InitAnnSepAcctNetInt = initAnnSepAcctNetInt
	v.InitTgtPremHiLoadRate = initTgtPremHiLoadRate
	v.InitMlyPolFee = initMlyPolFee
	v.finalized = true
}

// Finalized reports whether Finalize has been called.
func (v *Variant) Finalized() bool { return v.finalized }

// PlusEq accumulates another cell's variant ledger into this one,
// element-wise, for the same basis. Scalars (lapse month/year, init
// rates) are not meaningfully summable across cells and are left
// untouched by PlusEq; callers reading a composite Variant should treat
// those fields as belonging to whichever cell initialized the
// accumulator, not as a census-wide aggregate.
func (v *Variant) PlusEq(other *Variant) error {
	if v.Basis != other.Basis {
		return fmt.Errorf("ledger: cannot accumulate basis %s into %s", other.Basis, v.Basis)
	}
	if len(v.AVTotal) == 0 {
		*v = *NewVariant(v.Basis, len(other.AVTotal))
	}
	if len(v.AVTotal) != len(other.AVTotal) {
		return fmt.Errorf("ledger: variant vector length mismatch (%d vs %d)", len(v.AVTotal), len(other.AVTotal))
	}
	for y := range v.AVTotal {
		v.COICharge[y] = v.COICharge[y].Add(other.COICharge[y])
		v.RiderCharge[y] = v.RiderCharge[y].Add(other.RiderCharge[y])
		v.PolicyFee[y] = v.PolicyFee[y].Add(other.PolicyFee[y])
		v.SalesLoad[y] = v.SalesLoad[y].Add(other.SalesLoad[y])
		v.PremiumTaxLoad[y] = v.PremiumTaxLoad[y].Add(other.PremiumTaxLoad[y])
		v.DACTaxLoad[y] = v.DACTaxLoad[y].Add(other.DACTaxLoad[y])
		v.SALoad[y] = v.SALoad[y].Add(other.SALoad[y])
		v.InterestCreditedNet[y] = v.InterestCreditedNet[y].Add(other.InterestCreditedNet[y])
		v.InterestCreditedGross[y] = v.InterestCreditedGross[y].Add(other.InterestCreditedGross[y])
		v.LoanInterestAccrued[y] = v.LoanInterestAccrued[y].Add(other.LoanInterestAccrued[y])
		v.Claims[y] = v.Claims[y].Add(other.Claims[y])

		v.AVTotal[y] = v.AVTotal[y].Add(other.AVTotal[y])
		v.AVGen[y] = v.AVGen[y].Add(other.AVGen[y])
		v.AVSep[y] = v.AVSep[y].Add(other.AVSep[y])
		v.CSV[y] = v.CSV[y].Add(other.CSV[y])
		v.CV7702[y] = v.CV7702[y].Add(other.CV7702[y])
		v.DB[y] = v.DB[y].Add(other.DB[y])
		v.LoanBalance[y] = v.LoanBalance[y].Add(other.LoanBalance[y])
		v.TermPurchased[y] = v.TermPurchased[y].Add(other.TermPurchased[y])
		v.BaseDB[y] = v.BaseDB[y].Add(other.BaseDB[y])
		v.TaxBasis[y] = v.TaxBasis[y].Add(other.TaxBasis[y])
	}
	return nil
}

// Cell bundles one cell's invariant and per-basis variant sinks.
type Cell struct {
	Invariant *Invariant
	Variants  map[basis.GenBasis]*Variant
}

// Composite accumulates Cells across a census run via PlusEq.
type Composite struct {
	Invariant *Invariant
	Variants  map[basis.GenBasis]*Variant
}

// NewComposite returns an empty composite accumulator.
func NewComposite() *Composite {
	return &Composite{Variants: make(map[basis.GenBasis]*Variant)}
}

// Add folds one cell into the composite.
func (c *Composite) Add(cell Cell) error {
	if c.Invariant == nil {
		c.Invariant = NewInvariant(len(cell.Invariant.SpecAmt))
	}
	if err := c.Invariant.PlusEq(cell.Invariant); err != nil {
		return err
	}
	for b, v := range cell.Variants {
		acc, ok := c.Variants[b]
		if !ok {
			acc = NewVariant(b, len(v.AVTotal))
			c.Variants[b] = acc
		}
		if err := acc.PlusEq(v); err != nil {
			return err
		}
	}
	return nil
}
