package ports

import (
	"context"

	"github.com/dmaranges/cryptopilot/internal/domain"
)

// Analyzer is the market-analysis LLM stage. A transport failure returns an
// error; an unparseable model reply returns a neutral Analysis with Degraded
// set instead.
type Analyzer interface {
	Analyze(ctx context.Context, snapshot *domain.MonitorSnapshot) (domain.Analysis, error)
}

// Advisor is the trade-recommendation LLM stage. Same degradation contract
// as Analyzer: garbage in the reply yields an empty "avoid" packet, not an
// error.
type Advisor interface {
	Recommend(ctx context.Context, snapshot *domain.MonitorSnapshot, analysis domain.Analysis, perf domain.PerformanceContext) (domain.AdvicePacket, error)
}
