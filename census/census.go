/*
Package census implements the multi-cell orchestration spec.md §4.14
describes: life-by-life (serial per cell, all bases, accumulate into a
composite) and month-by-month (parallel-over-cells, case-level asset
barrier at the §4.11 separate-account-load suspension point) modes.

GROUNDED ON:
  api/scheduler.go's checkAndProcess() "gather every entity, then act"
  shape, generalized from a single flat pass over employees/assignments
  to two explicit passes over cells per month — the first collects each
  cell's separate-account assets into a case-level total (the one new
  piece of shared state a dynamic M&E lookup needs), the second feeds
  that total back into every cell before any of them proceeds to the
  next month. engine's IncrementBOM/IncrementEOM split (C11) is the
  per-cell half of that barrier; this package is the driver that holds
  cells at it. ledger.Composite's PlusEq (C15) is the accumulation sink.
*/
package census

import (
	"github.com/soa-illustrations/lmi/basis"
	"github.com/soa-illustrations/lmi/currency"
	"github.com/soa-illustrations/lmi/engine"
	"github.com/soa-illustrations/lmi/ledger"
	"github.com/soa-illustrations/lmi/lmierr"
)

// ErrCancelled is returned when the caller-supplied cancellation
// predicate aborts a run; partially-computed ledger state is discarded
// and no composite is returned (spec.md §5's cancellation guarantee).
// It is lmierr's shared cancellation sentinel, not a census-local one,
// so a caller juggling several packages' errors can test for it with a
// single errors.Is(err, lmierr.ErrCancelled) regardless of which
// package's run was interrupted.
var ErrCancelled = lmierr.ErrCancelled

// Mode selects one of spec.md §4.14's two orchestration modes.
type Mode int

const (
	// LifeByLife runs each cell's every basis to completion before
	// moving to the next cell.
	LifeByLife Mode = iota
	// MonthByMonth interleaves every cell at the end-of-step-17
	// suspension point each month, for charges that depend on total
	// case assets across lives (e.g. M&E banded by total SA assets).
	MonthByMonth
)

// ProgressMeter receives coarse progress reports (cells completed in
// life-by-life mode, years completed in month-by-month mode).
type ProgressMeter interface {
	Report(done, total int)
}

// CancelPredicate is polled at the cancellation points spec.md §5
// names (end-of-year in life-by-life mode, end-of-year-all-cells in
// month-by-month mode) and aborts the run when it returns true.
type CancelPredicate func() bool

// CensusCell bundles one cell's read-only projection inputs with the
// per-basis state and ledger sinks a census run accumulates into.
type CensusCell struct {
	Cell      *engine.Cell
	Ignore    bool
	Invariant *ledger.Invariant
	Variants  map[basis.GenBasis]*ledger.Variant
	States    map[basis.GenBasis]*engine.State
}

// NewCensusCell allocates the per-basis ledger sinks and engine states a
// cell needs to participate in a census run.
func NewCensusCell(cell *engine.Cell, bases []basis.GenBasis) *CensusCell {
	n := cell.Years()
	variants := make(map[basis.GenBasis]*ledger.Variant, len(bases))
	states := make(map[basis.GenBasis]*engine.State, len(bases))
	for _, b := range bases {
		variants[b] = ledger.NewVariant(b, n)
		states[b] = engine.NewState()
	}
	return &CensusCell{
		Cell:      cell,
		Invariant: ledger.NewInvariant(n),
		Variants:  variants,
		States:    states,
	}
}

// Result is what a census run produces: each participating cell's
// ledger sinks (for per-cell emission) plus the accumulated composite.
type Result struct {
	Cells     []ledger.Cell
	Composite *ledger.Composite
}

// Runner configures and executes one census pass over a set of cells.
type Runner struct {
	Cells  []*CensusCell
	Bases  []basis.GenBasis
	Mode   Mode
	Meter  ProgressMeter
	Cancel CancelPredicate
}

// Run executes the configured orchestration mode and returns the
// per-cell and composite ledgers, or ErrCancelled if the cancellation
// predicate fired.
func (r *Runner) Run() (*Result, error) {
	switch r.Mode {
	case MonthByMonth:
		return r.runMonthByMonth()
	default:
		return r.runLifeByLife()
	}
}

// runLifeByLife implements spec.md §4.14's life-by-life mode: iterate
// cells, run all bases serially, accumulate into the composite, emit
// per-cell output. Cancellation is polled at each cell's year boundary.
func (r *Runner) runLifeByLife() (*Result, error) {
	composite := ledger.NewComposite()
	cells := make([]ledger.Cell, 0, len(r.Cells))
	total := len(r.Cells)

	for i, cc := range r.Cells {
		if cc.Ignore {
			continue
		}
		for _, b := range r.Bases {
			st := cc.States[b]
			cc.Cell.BeginLife(st)
			for y := 0; y < cc.Cell.Years(); y++ {
				if cc.Cell.PrecedesInforceDuration(y, 11) {
					continue
				}
				if err := cc.Cell.IncrementYear(b, y, st, cc.Invariant, cc.Variants[b]); err != nil {
					return nil, err
				}
				if r.Cancel != nil && r.Cancel() {
					return nil, ErrCancelled
				}
			}
			cc.Cell.EndLife(st)
		}

		lc := ledger.Cell{Invariant: cc.Invariant, Variants: cc.Variants}
		if err := composite.Add(lc); err != nil {
			return nil, err
		}
		cells = append(cells, lc)

		if r.Meter != nil {
			r.Meter.Report(i+1, total)
		}
	}
	return &Result{Cells: cells, Composite: composite}, nil
}

// runMonthByMonth implements spec.md §4.14's month-by-month mode. For
// each basis, for each policy year up to the longest cell's maturity,
// every cell runs its InitializeYear, then every month is processed in
// two passes across all cells: the first through step 17 (summing
// separate-account assets in force into a case-level total), the second
// from step 19 on using that total for dynamic M&E. Cancellation is
// polled once every cell has finished a year.
func (r *Runner) runMonthByMonth() (*Result, error) {
	active := make([]*CensusCell, 0, len(r.Cells))
	maturity := 0
	for _, cc := range r.Cells {
		if cc.Ignore {
			continue
		}
		active = append(active, cc)
		if cc.Cell.Years() > maturity {
			maturity = cc.Cell.Years()
		}
	}

	for _, b := range r.Bases {
		for _, cc := range active {
			cc.Cell.BeginLife(cc.States[b])
		}

		for y := 0; y < maturity; y++ {
			yearConfigs := make(map[*CensusCell]engine.YearConfig, len(active))
			for _, cc := range active {
				if y >= cc.Cell.Years() {
					continue
				}
				yc, err := cc.Cell.BeginYear(y, cc.States[b])
				if err != nil {
					return nil, err
				}
				yearConfigs[cc] = yc
			}

			for m := 0; m < 12; m++ {
				assets := currency.Zero
				eligible := make([]*CensusCell, 0, len(active))
				for _, cc := range active {
					yc, ok := yearConfigs[cc]
					if !ok || cc.Cell.PrecedesInforceDuration(y, m) {
						continue
					}
					sep, halted, err := cc.Cell.IncrementBOM(y, m, yc, cc.States[b])
					if err != nil {
						return nil, err
					}
					if halted {
						continue
					}
					assets = assets.Add(sep)
					eligible = append(eligible, cc)
				}
				for _, cc := range eligible {
					if err := cc.Cell.IncrementEOM(y, m, yearConfigs[cc], cc.States[b], assets); err != nil {
						return nil, err
					}
				}
			}

			for _, cc := range active {
				yc, ok := yearConfigs[cc]
				if !ok {
					continue
				}
				if err := cc.Cell.EndYear(y, yc, cc.States[b], cc.Invariant, cc.Variants[b]); err != nil {
					return nil, err
				}
			}

			if r.Meter != nil {
				r.Meter.Report(y+1, maturity)
			}
			if r.Cancel != nil && r.Cancel() {
				return nil, ErrCancelled
			}
		}

		for _, cc := range active {
			cc.Cell.EndLife(cc.States[b])
		}
	}

	composite := ledger.NewComposite()
	cells := make([]ledger.Cell, 0, len(active))
	for _, cc := range active {
		lc := ledger.Cell{Invariant: cc.Invariant, Variants: cc.Variants}
		if err := composite.Add(lc); err != nil {
			return nil, err
		}
		cells = append(cells, lc)
	}
	return &Result{Cells: cells, Composite: composite}, nil
}
