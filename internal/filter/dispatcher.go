package filter

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/DocHatty/vulpes-celare/internal/config"
	"github.com/DocHatty/vulpes-celare/internal/engerr"
	"github.com/DocHatty/vulpes-celare/internal/phicat"
	"github.com/DocHatty/vulpes-celare/internal/span"
)

// DefaultMaxParallelism is the upper cap spec.md §5 places on the
// filter-dispatch worker pool ("a worker pool sized to hardware
// parallelism with an upper cap (default 8)").
const DefaultMaxParallelism = 8

// Registry holds the ordered set of filters the dispatcher runs. Filter
// instances are created once per engine lifetime and shared read-only
// across concurrent document calls (spec.md §3 Lifecycles).
type Registry struct {
	filters []Filter
}

// NewRegistry builds a Registry from the given filters, in registration
// order. Registration order is not observable in the dispatcher's output
// (spec.md §4.B: "Order of return is irrelevant") but is preserved for
// diagnostics and deterministic registry inspection.
func NewRegistry(filters ...Filter) *Registry {
	return &Registry{filters: append([]Filter(nil), filters...)}
}

// Filters returns the registered filters in registration order.
func (r *Registry) Filters() []Filter {
	return append([]Filter(nil), r.filters...)
}

// Result is one filter's outcome, either a candidate batch or a recovered
// FilterError (spec.md §7: "the dispatcher records it in stats, drops
// that filter's output for this call, and continues").
type Result struct {
	FilterID   string
	Candidates []span.Candidate
	Err        error
}

// Dispatcher runs a Registry's filters concurrently, bounded to
// maxParallelism in flight at once.
type Dispatcher struct {
	registry       *Registry
	maxParallelism int
}

// NewDispatcher builds a Dispatcher over registry. maxParallelism <= 0
// falls back to DefaultMaxParallelism.
func NewDispatcher(registry *Registry, maxParallelism int) *Dispatcher {
	if maxParallelism <= 0 {
		maxParallelism = DefaultMaxParallelism
	}
	return &Dispatcher{registry: registry, maxParallelism: maxParallelism}
}

// Run dispatches every registered filter against text under policy,
// respecting ctx for cancellation (spec.md §5: "A process call can be
// cancelled at phase boundaries; in-flight filter invocations complete or
// are dropped"). It returns one Result per registered filter, in
// registration order; a filter with no category enabled by policy is not
// run and gets an empty Result, since policy.Enabled is a pure, cheap
// check.
//
// A context cancellation surfaces as engerr.ErrCancellation/ErrTimeout and
// aborts the whole call — per spec.md §5, "Partial outputs are never
// returned: cancellation yields a cancellation error, not a partial
// redaction." Individual filter errors, by contrast, are recovered into
// Result.Err and never abort the dispatch.
func (d *Dispatcher) Run(ctx context.Context, text string, policy config.Policy) ([]Result, error) {
	filters := d.registry.Filters()
	results := make([]Result, len(filters))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.maxParallelism)

	for i, f := range filters {
		i, f := i, f
		if !anyCategoryEnabled(f.Categories(), policy) {
			results[i] = Result{FilterID: f.ID()}
			continue
		}
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			candidates, err := runFilterRecovered(f, text, policy)
			if err != nil {
				results[i] = Result{FilterID: f.ID(), Err: engerr.NewFilterFailure(f.ID(), err)}
				return nil
			}
			results[i] = Result{FilterID: f.ID(), Candidates: candidates}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, engerr.WrapCancellation(err)
	}
	return results, nil
}

// runFilterRecovered invokes f.Detect, converting a panicking filter into
// a returned error instead of crashing the dispatch (spec.md §7: a
// misbehaving filter degrades to a dropped result, never a process
// crash).
func runFilterRecovered(f Filter, text string, policy config.Policy) (candidates []span.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return f.Detect(text, policy)
}

// anyCategoryEnabled reports whether at least one of categories is active
// under policy; a filter with no enabled categories is skipped entirely.
func anyCategoryEnabled(categories []phicat.Category, policy config.Policy) bool {
	for _, c := range categories {
		if policy.Enabled(c) {
			return true
		}
	}
	return false
}
