package ports

import (
	"github.com/shopspring/decimal"

	"github.com/vngelio/polystation/internal/domain"
)

// Store is the durable per-mode movement log plus the settlement log. It
// does not cover the config file or any state mirror file.
type Store interface {
	// Append assigns the next monotonically increasing id and persists a
	// new movement row. Returns the assigned id.
	Append(mode domain.StorageMode, m domain.MovementRecord) (int64, error)

	// Has reports whether a movement_id already exists for the given mode.
	Has(mode domain.StorageMode, movementID string) bool

	// Settle marks a movement settled=true with the given pnl, in place.
	Settle(mode domain.StorageMode, movementID string, pnl decimal.Decimal) error

	// All returns every movement for the given mode, ordered by id.
	All(mode domain.StorageMode) ([]domain.MovementRecord, error)

	// Unsettled returns the unsettled movements for the given mode.
	Unsettled(mode domain.StorageMode) ([]domain.MovementRecord, error)

	// AppendSettlementLog writes one tab-separated settlement line.
	AppendSettlementLog(mode domain.StorageMode, m domain.MovementRecord) error
}
