package sim

import "context"

// Scope implements the engine's all-or-nothing unit of work: a ledger
// snapshot plus the pairs' cached reserves before, a revert of both on
// error.
type Scope struct {
	ledger  *Ledger
	factory *PairFactory
}

// NewScope returns a scope over the ledger and the factory's pairs.
func NewScope(ledger *Ledger, factory *PairFactory) *Scope {
	return &Scope{ledger: ledger, factory: factory}
}

// Run executes fn and undoes every mutation if fn fails.
func (s *Scope) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := s.ledger.Take()
	pairSnap := s.factory.snapshotReserves()
	if err := fn(ctx); err != nil {
		s.ledger.Revert(snap)
		s.factory.restoreReserves(pairSnap)
		return err
	}
	return nil
}
