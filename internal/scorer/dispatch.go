package scorer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/DocHatty/vulpes-celare/internal/document"
	"github.com/DocHatty/vulpes-celare/internal/engerr"
	"github.com/DocHatty/vulpes-celare/internal/span"
)

// DefaultMaxParallelism matches internal/filter's dispatch cap (spec.md
// §5: "a worker pool sized to hardware parallelism with an upper cap
// (default 8)"), applied here to per-span scoring.
const DefaultMaxParallelism = 8

// ScoreAll scores every candidate in candidates concurrently, bounded to
// maxParallelism in flight, and returns one span.Scored per candidate in
// the same order. maxParallelism <= 0 falls back to
// DefaultMaxParallelism.
func (s *Scorer) ScoreAll(ctx context.Context, candidates []span.Candidate, document_ []rune, classification document.Classification, maxParallelism int) ([]span.Scored, error) {
	if maxParallelism <= 0 {
		maxParallelism = DefaultMaxParallelism
	}
	results := make([]span.Scored, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelism)

	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = s.Score(c, document_, classification)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, engerr.WrapCancellation(err)
	}
	return results, nil
}
