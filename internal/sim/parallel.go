package sim

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/yoyosim/internal/dynamo"
)

// Job is one independent run. Build is called on the worker goroutine so
// every run gets its own Simulator (and integrator scratch space).
type Job struct {
	Build func() (*Simulator, dynamo.State, error)
	Cfg   dynamo.Config
}

// Outcome pairs a job's trajectory with its error; exactly one is set.
type Outcome struct {
	Trajectory *dynamo.Trajectory
	Err        error
}

type Ensemble struct {
	workers int
}

func NewEnsemble(workers int) *Ensemble {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Ensemble{workers: workers}
}

// Run executes jobs concurrently. A failing job does not stop the others;
// its error is reported in its Outcome. Only context cancellation is
// returned as a top-level error.
func (e *Ensemble) Run(ctx context.Context, jobs []Job) ([]Outcome, error) {
	outcomes := make([]Outcome, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range jobs {
		idx := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, x0, err := jobs[idx].Build()
			if err != nil {
				outcomes[idx].Err = err
				return nil
			}
			outcomes[idx].Trajectory, outcomes[idx].Err = s.Run(gctx, x0, jobs[idx].Cfg)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, ctx.Err()
}
