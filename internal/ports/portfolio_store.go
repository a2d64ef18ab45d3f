package ports

import (
	"context"

	"github.com/dmaranges/cryptopilot/internal/domain"
)

// PortfolioStore persists the full portfolio state. Load returns the whole
// ledger; Save atomically replaces it. There is exactly one writer.
type PortfolioStore interface {
	Load(ctx context.Context) (domain.Portfolio, error)
	Save(ctx context.Context, p domain.Portfolio) error
	Close() error
}
