/*
Package engine implements the policy-year monthiversary state machine
spec.md §4.11 describes: lifecycle states, an annual entry step, and a
fixed 25-step monthly transaction sequence that drives the four account
values (general, separate, regular-loan, preferred-loan) through
charges, interest, withdrawals, loans and tax-qualification tracking for
one cell's one basis-run.

GROUNDED ON:
  generic/engine_test.go and generic/accrual.go's period-driven balance
  recomputation loop (accrue → apply constraints → reconcile at period
  boundary) for the year→month nested loop shape; generic/policy.go's
  ReconciliationRule dispatch (trigger → ordered actions) for the fixed
  ordered transaction sequence, generalized from "rules fire at period
  end" to "the same 25 steps fire every month in the same order";
  stratified.ProgressivelyReduce (C3) for the preferred-account-first
  deduction split; taxqualify (C10) for GPT/corridor/7-pay state.
*/
package engine

import (
	"fmt"

	"github.com/soa-illustrations/lmi/basis"
	"github.com/soa-illustrations/lmi/currency"
	"github.com/soa-illustrations/lmi/deathbenefit"
	"github.com/soa-illustrations/lmi/interest"
	"github.com/soa-illustrations/lmi/ledger"
	"github.com/soa-illustrations/lmi/loads"
	"github.com/soa-illustrations/lmi/mortality"
	"github.com/soa-illustrations/lmi/outlay"
	"github.com/soa-illustrations/lmi/premiumtax"
	"github.com/soa-illustrations/lmi/stratified"
	"github.com/soa-illustrations/lmi/taxqualify"
)

// LifecyclePhase names one state of the §4.11 state machine.
type LifecyclePhase int

const (
	Constructed LifecyclePhase = iota
	LifeInitialized
	YearInitializedPhase
	MonthInitializedPhase
	MonthFinalizedPhase
	YearFinalizedPhase
	LifeFinalized
	AllBasesFinalized
)

// DeductionPreference selects how a monthly deduction is split between
// the general and separate accounts (spec.md §4.11 step 16).
type DeductionPreference int

const (
	DeductGeneralFirst DeductionPreference = iota
	DeductSeparateFirst
	DeductProportional
)

// HoneymoonState tracks the temporary bonus-rate period (spec.md §3).
// Rate is the monthly general-account rate credited in place of
// yc.GenRate.Monthly while Active; Value is the separately-accumulated
// floor CSV cannot fall below until the honeymoon expires.
type HoneymoonState struct {
	Active bool
	Value  currency.Amount
	Rate   float64
}

// LapseState tracks whether and when a cell has lapsed (spec.md §3).
type LapseState struct {
	ItLapsed   bool
	LapseYear  int
	LapseMonth int
}

// NoLapseGuarantee suppresses lapse while cumulative no-lapse premium
// meets or exceeds the year's required minimum.
type NoLapseGuarantee struct {
	RequiredCumulativePremium func(year int) currency.Amount
}

func (g *NoLapseGuarantee) active(year int, cumNoLapsePrem currency.Amount) bool {
	if g == nil || g.RequiredCumulativePremium == nil {
		return false
	}
	return cumNoLapsePrem.GTE(g.RequiredCumulativePremium(year))
}

// State is the per-basis-run account-value state spec.md §3 describes.
type State struct {
	AVGen, AVSep       currency.Amount
	RegLnAV, PrfLnAV   currency.Amount
	RegLnBal, PrfLnBal currency.Amount
	RegLnAccruedInt, PrfLnAccruedInt currency.Amount

	CumPmts, TaxBasis, CumWD, CumNoLapsePrem currency.Amount
	TargetPremiumUsedThisYear                currency.Amount

	GPT      taxqualify.GPTState
	SevenPay taxqualify.SevenPayState

	Honeymoon HoneymoonState
	Lapse     LapseState

	PriorSpecAmt  currency.Amount
	PriorDB       currency.Amount
	PriorDBOption basis.DBOption

	LoanUllage       map[int]currency.Amount
	WithdrawalUllage map[int]currency.Amount

	OverrideSpecAmt   map[int]currency.Amount
	OverrideEEPremium map[int]currency.Amount
	OverrideERPremium map[int]currency.Amount
	OverrideWD        map[int]currency.Amount
	OverrideLoan      map[int]currency.Amount

	SuppressLapse bool // set during a solve (spec.md §4.13)

	year yearAccumulators

	// monthPayment/monthForceout carry this month's accepted payment and
	// GPT forceout from IncrementBOM to IncrementEOM; a census driver
	// calls the two across a case-level barrier (step 18) for every
	// cell's same month before either proceeds to the next, so these
	// cannot be folded into st.year until IncrementEOM runs.
	monthPayment  currency.Amount
	monthForceout currency.Amount

	Phase LifecyclePhase
}

// yearAccumulators collects the monthly figures a year-end ledger write
// needs, reset at each annual entry.
type yearAccumulators struct {
	coiCharge, riderCharge, policyFee, salesLoad, premiumTaxLoad, dacTaxLoad, saLoad currency.Amount
	intCreditedNet, intCreditedGross, loanIntAccrued, claims                         currency.Amount
	payment, withdrawal, loan, outlayTotal, gptForceout, producerComp                currency.Amount
}

// NewState returns a freshly constructed, unlapsed State.
func NewState() *State {
	return &State{
		LoanUllage:        make(map[int]currency.Amount),
		WithdrawalUllage:  make(map[int]currency.Amount),
		OverrideSpecAmt:   make(map[int]currency.Amount),
		OverrideEEPremium: make(map[int]currency.Amount),
		OverrideERPremium: make(map[int]currency.Amount),
		OverrideWD:        make(map[int]currency.Amount),
		OverrideLoan:      make(map[int]currency.Amount),
		Phase:             Constructed,
	}
}

// AVTotal sums every account-value balance, including loan-collateral
// accounts.
func (s *State) AVTotal() currency.Amount {
	return currency.Sum(s.AVGen, s.AVSep, s.RegLnAV, s.PrfLnAV)
}

// LoanBalance sums both loan principal balances.
func (s *State) LoanBalance() currency.Amount {
	return s.RegLnBal.Add(s.PrfLnBal)
}

// rawCSV computes account-value-based surrender value without the
// honeymoon floor, for the expiration test to compare against (flooring
// first would make that comparison trivially true the instant the
// honeymoon becomes active).
func (s *State) rawCSV(surrenderCharge currency.Amount) currency.Amount {
	return s.AVTotal().Sub(s.LoanBalance()).Sub(surrenderCharge)
}

// CSV is the cash surrender value: total account value, less outstanding
// loan principal, less the year's surrender charge, floored by the
// honeymoon's separately-accumulated value while the honeymoon is active.
func (s *State) CSV(surrenderCharge currency.Amount) currency.Amount {
	csv := s.rawCSV(surrenderCharge)
	if s.Honeymoon.Active {
		csv = csv.Max(s.Honeymoon.Value)
	}
	return csv
}

// YearConfig bundles one policy year's pulled invariants (spec.md §4.11
// "annual entry: pull yearly invariants").
type YearConfig struct {
	Loads      loads.YearRow
	Mortality  mortality.YearRow
	GenRate    interest.Rate // monthly general-account credited rate
	SepRate    interest.Rate // monthly separate-account net credited rate
	DBOption   basis.DBOption
	SpecAmt    currency.Amount
	SupplAmt   currency.Amount
	EEMode     basis.Mode
	ERMode     basis.Mode

	AllocationToSep      float64 // fraction of net premium routed to the separate account
	DeductionPreference  DeductionPreference
	MaxMonthlyCOIRate    float64
	SurrenderCharge      currency.Amount
	LoanBuffer           currency.Amount
	AnnualTargetPremium  currency.Amount // threshold below which TargetPremiumLoad applies, above which ExcessPremiumLoad applies

	GuidelineLevelPremium  currency.Amount // GLP for the year's specified amount, under GPT
	GuidelineSinglePremium currency.Amount // GSP for the year's specified amount, under GPT
}

// Cell bundles the read-only tables and configuration a basis-run needs
// (spec.md §6's read-only inputs: tables C5-C9, product database,
// rounding rules).
type Cell struct {
	IssueAge int

	DeathBenefit *deathbenefit.Vectors
	Outlay       *outlay.Vectors
	Interest     interest.Table
	Corridor     taxqualify.CorridorTable

	// DynamicME, when set, re-derives this cell's net separate-account
	// credited rate every month from the case-level separate-account
	// assets a census driver (C14) sums at the step-18 barrier, instead
	// of the flat YearConfig.SepRate.
	DynamicME *interest.DynamicMESchedule

	PremiumTax       premiumtax.Table
	TaxState         premiumtax.State
	Domicile         premiumtax.State
	PremiumTaxAccum  *premiumtax.Accumulator

	NoLapseGuarantee *NoLapseGuarantee
	DefinitionOfLife basis.DefinitionOfLifeInsurance

	YearConfigs []YearConfig // one per projected policy year

	Rounding RoundingRules

	// InforceYear/InforceMonth is the (year, month) index this cell
	// first participates in a projection; zero value means "inforce
	// from issue." A census driver (C14) checks PrecedesInforceDuration
	// before processing a cell for a given month so a block of new
	// business added mid-census does not run months before it exists.
	InforceYear  int
	InforceMonth int
}

// PrecedesInforceDuration reports whether (y, m) is strictly before this
// cell's inforce start, per spec.md §4.14.
func (c *Cell) PrecedesInforceDuration(y, m int) bool {
	if y < c.InforceYear {
		return true
	}
	return y == c.InforceYear && m < c.InforceMonth
}

// RoundingRules names the rounding functions the monthly sequence
// applies at its currency boundaries.
type RoundingRules struct {
	Amount func(currency.Amount) currency.Amount
}

func (r RoundingRules) round(a currency.Amount) currency.Amount {
	if r.Amount == nil {
		return a
	}
	return r.Amount(a)
}

// Years returns the number of projected policy years.
func (c *Cell) Years() int { return len(c.YearConfigs) }

func (c *Cell) yearConfig(y int) (YearConfig, error) {
	if y < 0 || y >= len(c.YearConfigs) {
		return YearConfig{}, fmt.Errorf("engine: policy year %d out of range [0,%d)", y, len(c.YearConfigs))
	}
	return c.YearConfigs[y], nil
}

// RunBasis executes the full year→month projection for one basis,
// writing accumulated results into the supplied ledger sinks. It
// implements the §4.11 lifecycle from LifeInitialized through
// LifeFinalized.
func (c *Cell) RunBasis(b basis.GenBasis, st *State, inv *ledger.Invariant, v *ledger.Variant) error {
	c.BeginLife(st)
	for y := 0; y < c.Years(); y++ {
		if err := c.IncrementYear(b, y, st, inv, v); err != nil {
			return err
		}
	}
	c.EndLife(st)
	return nil
}

// BeginLife and EndLife bracket a basis-run's lifecycle phase around a
// caller-driven year loop (spec.md §4.14's life-by-life orchestration
// mode polls a cancellation predicate between IncrementYear calls, so it
// cannot use RunBasis's enclosing loop directly).
func (c *Cell) BeginLife(st *State) { st.Phase = LifeInitialized }
func (c *Cell) EndLife(st *State)   { st.Phase = LifeFinalized }

// IncrementYear runs one full policy year: annual entry, all twelve
// months, and the year-end ledger write. RunBasis calls this internally
// for a single-cell projection; a census driver (C14) calls it directly,
// once per cell per year, so it can poll a cancellation predicate at the
// year boundary without RunBasis's enclosing loop.
func (c *Cell) IncrementYear(b basis.GenBasis, y int, st *State, inv *ledger.Invariant, v *ledger.Variant) error {
	yc, err := c.BeginYear(y, st)
	if err != nil {
		return err
	}
	for m := 0; m < 12; m++ {
		if err := c.runMonth(b, y, m, yc, st); err != nil {
			return err
		}
	}
	return c.EndYear(y, yc, st, inv, v)
}

// BeginYear executes the annual entry step (spec.md §4.11's
// "InitializeYear"): pulls the year's configuration, resets the per-year
// accumulators, and returns the YearConfig the month loop needs. A
// census driver (C14) calls this once per cell before the month-by-month
// pass begins, in its parallel orchestration mode.
func (c *Cell) BeginYear(y int, st *State) (YearConfig, error) {
	st.Phase = YearInitializedPhase
	yc, err := c.yearConfig(y)
	if err != nil {
		return YearConfig{}, err
	}
	st.year = yearAccumulators{}
	st.TargetPremiumUsedThisYear = currency.Zero
	st.PriorSpecAmt = yc.SpecAmt
	st.PriorDBOption = yc.DBOption
	return yc, nil
}

// EndYear executes the year-end claims/EOY ledger write, once every
// month in y has run. A census driver (C14) calls this once per cell
// after the month-by-month pass's last month, in its parallel
// orchestration mode.
func (c *Cell) EndYear(y int, yc YearConfig, st *State, inv *ledger.Invariant, v *ledger.Variant) error {
	av := st.AVTotal()
	csv := st.CSV(yc.SurrenderCharge)
	base := baseDeathBenefit(yc.DBOption, st.PriorSpecAmt, yc.SupplAmt, av, st.CumPmts)
	age := c.IssueAge + y
	db, err := c.Corridor.RequiredDB(age, base, av)
	if err != nil {
		db = base
	}
	cv7702 := av

	if err := v.SetBOY(y, st.year.coiCharge, st.year.riderCharge, st.year.policyFee, st.year.salesLoad,
		st.year.premiumTaxLoad, st.year.dacTaxLoad, st.year.saLoad, st.year.intCreditedNet, st.year.intCreditedGross,
		st.year.loanIntAccrued, st.year.claims); err != nil {
		return err
	}
	if err := v.SetEOY(y, av, st.AVGen, st.AVSep, csv, cv7702, db, st.LoanBalance(), currency.Zero, base,
		yc.GenRate.Annual, yc.SepRate.Annual); err != nil {
		return err
	}
	if err := v.SetTaxBasis(y, st.TaxBasis); err != nil {
		return err
	}
	if st.Lapse.ItLapsed && st.Lapse.LapseYear == y {
		v.SetLapse(y, st.Lapse.LapseMonth)
	}
	if err := inv.SetYear(y, st.PriorSpecAmt, currency.Zero, st.year.payment, st.year.withdrawal, st.year.loan,
		st.year.outlayTotal, st.year.gptForceout, st.year.producerComp); err != nil {
		return err
	}
	if st.SevenPay.IsMec {
		inv.SetMec(st.SevenPay.MecYear, st.SevenPay.MecMonth)
	}

	st.Phase = YearFinalizedPhase
	return nil
}

func baseDeathBenefit(opt basis.DBOption, specamt, supplamt, av, cumPmts currency.Amount) currency.Amount {
	switch opt {
	case basis.DBOptionIncreasing:
		return specamt.Add(av).Add(supplamt)
	case basis.DBOptionROP:
		return specamt.Add(cumPmts).Add(supplamt)
	default:
		return specamt.Add(supplamt)
	}
}

// runMonth executes the full 25-step monthly transaction sequence for
// a single-cell run, using this cell's own separate-account assets as
// the case-level total (a one-cell case has no other lives to
// aggregate with at the step-18 barrier).
func (c *Cell) runMonth(b basis.GenBasis, y, m int, yc YearConfig, st *State) error {
	sepAssets, halted, err := c.IncrementBOM(y, m, yc, st)
	if err != nil || halted {
		return err
	}
	return c.IncrementEOM(y, m, yc, st, sepAssets)
}

// IncrementBOM executes steps 1-17 of the monthly sequence (through
// the separate-account load) and returns this cell's separate-account
// assets in force, for a census driver (C14) to sum across cells at
// the step-18 case-level barrier before calling IncrementEOM. The
// second return value reports whether the month was a no-op because
// the cell has already lapsed; IncrementEOM must not be called in
// that case.
func (c *Cell) IncrementBOM(y, m int, yc YearConfig, st *State) (sepAcctAssets currency.Amount, halted bool, err error) {
	st.Phase = MonthInitializedPhase

	if st.Lapse.ItLapsed {
		st.Phase = MonthFinalizedPhase
		return currency.Zero, true, nil
	}

	if m == 0 {
		c.txExch1035(y, st) // step 2
	}
	c.txOptionChange(y, m, yc, st) // step 3
	c.txSpecAmtChange(y, m, st)    // step 4

	c.txTestGPT(yc, st) // step 5: recompute GLP/GSP ahead of this month's payment cap

	eePmt, erPmt := c.txPmt(y, m, yc, st) // step 6
	payment := eePmt.Add(erPmt)
	payment, _, forceout := c.txLimitPayment(payment, yc, st) // step 7
	c.txRecognizePaymentFor7702A(y, m, payment, st)           // step 8

	if _, err := c.txAcceptPayment(y, payment, yc, st); err != nil { // step 9
		return currency.Zero, false, err
	}

	c.txLoanRepay(st) // step 10 (no scheduled repayment modeled beyond loan/AV bookkeeping already captured)

	// step 11: TxSetBOMAV — beginning-of-month balances are read directly
	// off st.AVGen/st.AVSep by the deduction-splitting steps that follow;
	// no separate snapshot is needed in this port.

	c.txTestHoneymoonForExpiration(yc, st) // step 12

	base := baseDeathBenefit(yc.DBOption, st.PriorSpecAmt, yc.SupplAmt, st.AVTotal(), st.CumPmts)
	age := c.IssueAge + y
	db, err := c.Corridor.RequiredDB(age, base, st.AVTotal())
	if err != nil {
		db = base
	} // step 13: TxSetTermAmt, TxSetDeathBft

	coi, err := c.txSetCoiCharge(y, db, yc, st) // step 14
	if err != nil {
		return currency.Zero, false, err
	}
	riderCharge := c.txSetRiderDed(yc, st) // step 15

	c.txDoMlyDed(coi.Add(riderCharge), yc, st) // step 16
	c.txTakeSepAcctLoad(yc, st)                // step 17

	st.monthPayment = payment
	st.monthForceout = forceout

	return st.AVSep, false, nil
}

// IncrementEOM executes steps 19-25 of the monthly sequence, given the
// case-level separate-account assets a census driver (C14) summed
// across every cell at the step-18 barrier. When the cell carries a
// DynamicME schedule, that case-level total re-derives this month's
// net separate-account credited rate instead of the flat yc.SepRate.
func (c *Cell) IncrementEOM(y, m int, yc YearConfig, st *State, caseAssets currency.Amount) error {
	sepRate := yc.SepRate.Monthly
	if c.DynamicME != nil {
		sepRate, _ = c.DynamicME.EffectiveMonthlyRate(caseAssets)
	}

	c.txCreditInt(withSepRate(yc, sepRate), st) // step 19
	c.txLoanInt(yc, st)                         // step 20

	wd := c.txTakeWD(y, m, yc, st)     // step 21
	loan := c.txTakeLoan(y, m, yc, st) // step 22

	if m == 11 {
		c.txCapitalizeLoan(st) // step 23
	}

	c.txTestLapse(yc, st, y, m) // step 24

	st.year.payment = st.year.payment.Add(st.monthPayment)
	st.year.gptForceout = st.year.gptForceout.Add(st.monthForceout)
	st.year.withdrawal = st.year.withdrawal.Add(wd)
	st.year.loan = st.year.loan.Add(loan)
	st.year.outlayTotal = st.year.outlayTotal.Add(st.monthPayment).Sub(wd).Sub(loan)
	st.monthPayment = currency.Zero
	st.monthForceout = currency.Zero

	st.Phase = MonthFinalizedPhase // step 25: FinalizeMonth
	return nil
}

// withSepRate returns yc with SepRate.Monthly overridden, leaving
// SepRate.Annual untouched (the annual figure still feeds the
// year-end ledger write; only the monthly crediting itself responds
// to a dynamic M&E lookup).
func withSepRate(yc YearConfig, monthly float64) YearConfig {
	yc.SepRate.Monthly = monthly
	return yc
}

// txExch1035 credits an external/internal 1035 exchange to AV and
// premium basis (month 0 only).
func (c *Cell) txExch1035(y int, st *State) {
	amt, err := c.Outlay.Exchange1035(y)
	if err != nil || amt.IsZero() {
		return
	}
	st.AVGen = st.AVGen.Add(amt)
	st.TaxBasis = st.TaxBasis.Add(amt)
}

// txOptionChange records the year's DB option in PriorDBOption at month
// 0. No AV or specamt adjustment is made on an option change; DB is
// recomputed from the year's option every month.
func (c *Cell) txOptionChange(y, m int, yc YearConfig, st *State) {
	if m == 0 {
		st.PriorDBOption = yc.DBOption
	}
}

// txSpecAmtChange applies a scheduled specified-amount change (an
// OverrideSpecAmt entry from a solve, or the strategy-resolved value
// already baked into YearConfig at annual entry). st.PriorSpecAmt is
// the effective spec amount every downstream reader (baseDeathBenefit,
// COI, rider charges, the 7-pay limit, the ledger write) uses in place
// of yc.SpecAmt, so a specamt solve candidate actually reaches them.
func (c *Cell) txSpecAmtChange(y, m int, st *State) {
	if amt, ok := st.OverrideSpecAmt[y]; ok && m == 0 {
		st.PriorSpecAmt = amt
	}
}

// txTestGPT recomputes GPT limits ahead of this month's payment cap. The
// guideline bounds themselves are supplied by the strategy layer (C12)
// at annual entry and restated here via GPTState.Recompute so the
// cumulative-premium forceout test in txLimitPayment sees the current
// year's limits.
func (c *Cell) txTestGPT(yc YearConfig, st *State) {
	if c.DefinitionOfLife != basis.GPT {
		return
	}
	st.GPT.Recompute(yc.GuidelineLevelPremium, yc.GuidelineSinglePremium)
}

// txPmt ascertains desired EE/ER payments, gated by the modal-date table
// (spec.md §4.11 step 6).
func (c *Cell) txPmt(y, m int, yc YearConfig, st *State) (ee, er currency.Amount) {
	if !basis.IsModeDue(yc.EEMode, m) && !basis.IsModeDue(yc.ERMode, m) {
		return currency.Zero, currency.Zero
	}
	eeAnnual, _ := c.Outlay.EEPremium(y)
	erAnnual, _ := c.Outlay.ERPremium(y)
	if override, ok := st.OverrideEEPremium[y]; ok {
		eeAnnual = override
	}
	if override, ok := st.OverrideERPremium[y]; ok {
		erAnnual = override
	}
	if basis.IsModeDue(yc.EEMode, m) {
		ee = eeAnnual.MulFraction(yc.EEMode.ModalFraction())
	}
	if basis.IsModeDue(yc.ERMode, m) {
		er = erAnnual.MulFraction(yc.ERMode.ModalFraction())
	}
	return ee, er
}

// txLimitPayment caps the payment so §7702 limits are respected and
// reports the portion of the GPT-forceout-net payment that falls
// within the remaining 7-pay window (the "necessary" premium spec.md
// §4.11 step 7 and §3's GPT state call for). necessary is a
// material-change-tracking quantity only — it is not what feeds the
// 7-pay cumulative test, since that test's entire purpose is to detect
// when actual premium paid exceeds the 7-pay limit.
func (c *Cell) txLimitPayment(payment currency.Amount, yc YearConfig, st *State) (accepted, necessary, forceout currency.Amount) {
	if c.DefinitionOfLife == basis.GPT {
		forceout = st.GPT.TestAndForceout(payment)
		payment = payment.Sub(forceout)
	}
	sevenPayAnnual := yc.Mortality.SevenPayRate
	limit := st.PriorSpecAmt.MulFraction(sevenPayAnnual * 7)
	remaining := limit.Sub(st.SevenPay.CumulativePremiumInWindow)
	necessary = payment.Min(remaining.Max(currency.Zero))
	return payment, necessary, forceout
}

// txRecognizePaymentFor7702A updates the 7-pay accumulator with the
// actual (GPT-forceout-net) premium accepted into the contract this
// month, per spec.md §4.11 step 8. Feeding it the 7702A-capped
// "necessary" portion instead would make the running total asymptotically
// approach but never strictly exceed the 7-pay limit, making MEC
// detection impossible whenever the 7702 and 7-pay limits agree.
func (c *Cell) txRecognizePaymentFor7702A(y, m int, payment currency.Amount, st *State) {
	st.SevenPay.RecognizePayment(y, m, payment)
}

// txAcceptPayment splits the payment between accounts and applies
// premium-tax, sales, and DAC-tax loads (spec.md §4.11 step 9).
func (c *Cell) txAcceptPayment(y int, payment currency.Amount, yc YearConfig, st *State) (currency.Amount, error) {
	if payment.IsZero() {
		return currency.Zero, nil
	}
	var premiumTax currency.Amount
	var err error
	if c.PremiumTaxAccum != nil && len(c.PremiumTax) > 0 {
		premiumTax, err = c.PremiumTaxAccum.ApplyPayment(c.PremiumTax, c.TaxState, c.Domicile, payment)
		if err != nil {
			return currency.Zero, err
		}
	} else {
		premiumTax = payment.MulFraction(yc.Loads.PremiumTaxLoad)
	}

	salesLoad := payment.MulFraction(yc.Loads.SalesLoad)
	dacTaxLoad := payment.MulFraction(yc.Loads.DACTaxLoad)

	remainingTarget := yc.AnnualTargetPremium.Sub(st.TargetPremiumUsedThisYear).Max(currency.Zero)
	targetPortion := payment.Min(remainingTarget)
	excessPortion := payment.Sub(targetPortion)
	targetLoad := targetPortion.MulFraction(yc.Loads.TargetPremiumLoad)
	excessLoad := excessPortion.MulFraction(yc.Loads.ExcessPremiumLoad)
	st.TargetPremiumUsedThisYear = st.TargetPremiumUsedThisYear.Add(targetPortion)

	totalLoad := currency.Sum(premiumTax, salesLoad, dacTaxLoad, targetLoad, excessLoad)
	netToAV := c.Rounding.round(payment.Sub(totalLoad))

	sepDelta := netToAV.MulFraction(yc.AllocationToSep)
	genDelta := netToAV.Sub(sepDelta)
	st.AVGen = st.AVGen.Add(genDelta)
	st.AVSep = st.AVSep.Add(sepDelta)

	st.CumPmts = st.CumPmts.Add(payment)
	st.TaxBasis = st.TaxBasis.Add(payment)
	st.CumNoLapsePrem = st.CumNoLapsePrem.Add(payment)

	st.year.salesLoad = st.year.salesLoad.Add(salesLoad)
	st.year.premiumTaxLoad = st.year.premiumTaxLoad.Add(premiumTax)
	st.year.dacTaxLoad = st.year.dacTaxLoad.Add(dacTaxLoad)

	return netToAV, nil
}

// txLoanRepay is a no-op placeholder: scheduled loan repayments are
// modeled as negative loan entries in the outlay schedule and flow
// through txTakeLoan instead of a dedicated repayment table.
func (c *Cell) txLoanRepay(st *State) {}

// txTestHoneymoonForExpiration deactivates an active honeymoon once CSV
// reaches the honeymoon value.
func (c *Cell) txTestHoneymoonForExpiration(yc YearConfig, st *State) {
	if !st.Honeymoon.Active {
		return
	}
	if st.rawCSV(yc.SurrenderCharge).GTE(st.Honeymoon.Value) {
		st.Honeymoon.Active = false
	}
}

// txSetCoiCharge computes NAAR and the monthly COI charge (spec.md
// §4.11 step 14: discounted at the monthly §7702 guideline rate, never
// the current rate).
func (c *Cell) txSetCoiCharge(y int, db currency.Amount, yc YearConfig, st *State) (currency.Amount, error) {
	guideline := c.Interest.GuidelineRate.ForPeriod(basis.Monthly)
	avPreCoi := st.AVGen.Add(st.AVSep)
	naar := db.MulFraction(1 / (1 + guideline)).Sub(avPreCoi)
	if naar.IsNegative() {
		naar = currency.Zero
	}
	annualQ := yc.Mortality.COIBands.RateFor(naar)
	monthlyRate := mortality.MonthlyCOIRate(annualQ, false, yc.Mortality.SubstandardMultiplier, yc.MaxMonthlyCOIRate)
	coi := naar.MulFraction(monthlyRate)
	flatExtra := st.PriorSpecAmt.MulFraction(1.0 / 1000).MulFraction(yc.Mortality.FlatExtra.Float64() / 12)
	coi = coi.Add(flatExtra)
	coi = c.Rounding.round(coi)
	st.year.coiCharge = st.year.coiCharge.Add(coi)
	return coi, nil
}

// txSetRiderDed computes the monthly ADB/WP/child/spouse rider charges.
func (c *Cell) txSetRiderDed(yc YearConfig, st *State) currency.Amount {
	monthly := (yc.Mortality.RiderADBRate + yc.Mortality.RiderWPRate + yc.Mortality.RiderChildRate + yc.Mortality.RiderSpouseRate) / 12
	charge := st.PriorSpecAmt.MulFraction(monthly)
	charge = c.Rounding.round(charge)
	st.year.riderCharge = st.year.riderCharge.Add(charge)
	return charge
}

// txDoMlyDed debits COI, rider charges, and policy fee from AV,
// apportioned per the configured deduction preference via
// stratified.ProgressivelyReduce.
func (c *Cell) txDoMlyDed(chargesBeforeFee currency.Amount, yc YearConfig, st *State) {
	fee := yc.Loads.PolicyFeeMonthly
	total := chargesBeforeFee.Add(fee)
	st.year.policyFee = st.year.policyFee.Add(fee)

	genDelta, sepDelta := splitDeduction(yc.DeductionPreference, st.AVGen, st.AVSep, total)
	st.AVGen = st.AVGen.Sub(genDelta)
	st.AVSep = st.AVSep.Sub(sepDelta)
}

// splitDeduction returns the amounts to debit from the general and
// separate accounts. Any part of a decrement that the accounts' positive
// balances cannot absorb is charged to the preferred-first account,
// driving it negative, so the whole amount is always debited.
func splitDeduction(pref DeductionPreference, genAV, sepAV, amount currency.Amount) (genDelta, sepDelta currency.Amount) {
	switch pref {
	case DeductSeparateFirst:
		newSep, newGen, residual := stratified.ProgressivelyReduce(sepAV, genAV, amount)
		return genAV.Sub(newGen), sepAV.Sub(newSep).Add(residual)
	case DeductProportional:
		total := genAV.Add(sepAV)
		if total.IsZero() {
			return amount, currency.Zero
		}
		genDelta = amount.MulFraction(genAV.Float64() / total.Float64())
		sepDelta = amount.Sub(genDelta)
		return genDelta, sepDelta
	default:
		newGen, newSep, residual := stratified.ProgressivelyReduce(genAV, sepAV, amount)
		return genAV.Sub(newGen).Add(residual), sepAV.Sub(newSep)
	}
}

// txTakeSepAcctLoad debits the separate-account asset-based load,
// post-deduction.
func (c *Cell) txTakeSepAcctLoad(yc YearConfig, st *State) {
	load := st.AVSep.MulFraction(yc.Loads.SepAcctLoad / 12)
	load = c.Rounding.round(load)
	st.AVSep = st.AVSep.Sub(load)
	st.year.saLoad = st.year.saLoad.Add(load)
}

// txCreditInt credits general- and separate-account interest at the
// month's effective rates, honoring an active honeymoon rate.
func (c *Cell) txCreditInt(yc YearConfig, st *State) {
	genRate := yc.GenRate.Monthly
	sepRate := yc.SepRate.Monthly
	if st.Honeymoon.Active {
		genRate = st.Honeymoon.Rate
	}
	genInt := c.Rounding.round(st.AVGen.MulFraction(genRate))
	sepInt := c.Rounding.round(st.AVSep.MulFraction(sepRate))
	st.AVGen = st.AVGen.Add(genInt)
	st.AVSep = st.AVSep.Add(sepInt)
	st.year.intCreditedNet = st.year.intCreditedNet.Add(genInt).Add(sepInt)
	st.year.intCreditedGross = st.year.intCreditedGross.Add(genInt).Add(sepInt)
	st.SevenPay.AccrueDCV(currency.Zero, genInt.Add(sepInt), currency.Zero)
}

// txLoanInt accrues loan interest: the credited portion is added to
// loan-collateral AV immediately, the due portion accumulates
// uncapitalized until year-end. Both portions use the year's general-
// account monthly rate (yc.GenRate.Monthly); the separate loan credited
// and due rates in interest.Table are not read here.
func (c *Cell) txLoanInt(yc YearConfig, st *State) {
	regMonthlyCredited := yc.GenRate.Monthly // regular loan AV credited at the general rate in this port
	prfMonthlyCredited := yc.GenRate.Monthly

	regCredit := c.Rounding.round(st.RegLnAV.MulFraction(regMonthlyCredited))
	prfCredit := c.Rounding.round(st.PrfLnAV.MulFraction(prfMonthlyCredited))
	st.RegLnAV = st.RegLnAV.Add(regCredit)
	st.PrfLnAV = st.PrfLnAV.Add(prfCredit)

	regDue := c.Rounding.round(st.RegLnBal.MulFraction(yc.GenRate.Monthly))
	prfDue := c.Rounding.round(st.PrfLnBal.MulFraction(yc.GenRate.Monthly))
	st.RegLnAccruedInt = st.RegLnAccruedInt.Add(regDue)
	st.PrfLnAccruedInt = st.PrfLnAccruedInt.Add(prfDue)

	st.year.loanIntAccrued = st.year.loanIntAccrued.Add(regDue).Add(prfDue)
}

// txTakeWD processes a scheduled withdrawal: enforce MaxWD, record
// ullage on shortfall, debit AV and reduce tax basis. Specamt is not
// reduced under any death-benefit option.
func (c *Cell) txTakeWD(y, m int, yc YearConfig, st *State) currency.Amount {
	requested, ok := st.OverrideWD[y]
	if !ok {
		var err error
		requested, err = c.Outlay.Withdrawal(y)
		if err != nil {
			return currency.Zero
		}
	}
	if requested.IsZero() || !basis.IsModeDue(basis.ModeAnnual, m) {
		return currency.Zero
	}
	maxWD := st.AVTotal().Sub(yc.SurrenderCharge).Max(currency.Zero)
	granted := requested.Min(maxWD)
	if requested.GreaterThan(granted) {
		st.WithdrawalUllage[y] = requested.Sub(granted)
	}
	genDelta, sepDelta := splitDeduction(yc.DeductionPreference, st.AVGen, st.AVSep, granted)
	st.AVGen = st.AVGen.Sub(genDelta)
	st.AVSep = st.AVSep.Sub(sepDelta)
	st.CumWD = st.CumWD.Add(granted)
	st.TaxBasis = st.TaxBasis.Sub(granted.Min(st.TaxBasis))
	return granted
}

// txTakeLoan processes a scheduled loan: enforce MaxLoan with a
// prescribed buffer, record ullage, move collateral AV into the
// loan-backed account and increment the principal balance.
func (c *Cell) txTakeLoan(y, m int, yc YearConfig, st *State) currency.Amount {
	requested, ok := st.OverrideLoan[y]
	if !ok {
		var err error
		requested, err = c.Outlay.Loan(y)
		if err != nil {
			return currency.Zero
		}
	}
	if requested.IsZero() || !basis.IsModeDue(basis.ModeAnnual, m) {
		return currency.Zero
	}
	maxLoan := st.AVTotal().Sub(yc.SurrenderCharge).Sub(yc.LoanBuffer).Max(currency.Zero)
	granted := requested.Min(maxLoan)
	if requested.GreaterThan(granted) {
		st.LoanUllage[y] = requested.Sub(granted)
	}
	genDelta, sepDelta := splitDeduction(yc.DeductionPreference, st.AVGen, st.AVSep, granted)
	st.AVGen = st.AVGen.Sub(genDelta)
	st.AVSep = st.AVSep.Sub(sepDelta)
	st.RegLnAV = st.RegLnAV.Add(granted)
	st.RegLnBal = st.RegLnBal.Add(granted)
	return granted
}

// txCapitalizeLoan transfers a year's accrued-but-uncapitalized loan
// interest onto principal (annually, at year-end).
func (c *Cell) txCapitalizeLoan(st *State) {
	st.RegLnBal = st.RegLnBal.Add(st.RegLnAccruedInt)
	st.PrfLnBal = st.PrfLnBal.Add(st.PrfLnAccruedInt)
	st.RegLnAccruedInt = currency.Zero
	st.PrfLnAccruedInt = currency.Zero
}

// txTestLapse transitions to Lapsed when CSV falls below zero and no
// no-lapse guarantee or solve suppression is in force.
func (c *Cell) txTestLapse(yc YearConfig, st *State, y, m int) {
	if st.SuppressLapse {
		return
	}
	if c.NoLapseGuarantee.active(y, st.CumNoLapsePrem) {
		return
	}
	if st.CSV(yc.SurrenderCharge).IsNegative() {
		st.Lapse.ItLapsed = true
		st.Lapse.LapseYear = y
		st.Lapse.LapseMonth = m
	}
}
