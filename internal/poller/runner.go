// internal/poller/runner.go
package poller

import "context"

// Run scans the bus back-to-back and emits one ScanResult per exchange.
// The master's send gate paces the loop. Submitted parameter writes
// run between scans. Run returns at the next scan boundary after ctx
// is done.
func (p *Poller) Run(ctx context.Context, out chan<- ScanResult) {
	defer close(p.stopped)

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			job.done <- p.Execute(job.req)
			continue
		default:
		}

		res := p.PollOnce()

		select {
		case <-ctx.Done():
			return
		case out <- res:
		}
	}
}
