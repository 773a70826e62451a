package pool

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
)

// startHealthLoop launches the periodic idle sweep. No-op when the
// interval is zero.
func (p *Pool) startHealthLoop() {
	if p.cfg.HealthCheckInterval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.healthCancel = cancel
	p.healthDone = make(chan struct{})

	go func() {
		defer close(p.healthDone)
		ticker := time.NewTicker(p.cfg.HealthCheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.sweep(ctx)
			}
		}
	}()
}

func (p *Pool) stopHealthLoop() {
	if p.healthCancel == nil {
		return
	}
	p.healthCancel()
	<-p.healthDone
	p.healthCancel = nil
}

// sweep probes every currently idle connection and evicts the dead ones.
// The candidates are pulled out of the idle set under the lock and probed
// WITHOUT it, so a slow or hung probe never stalls acquirers: leased
// connections are untouched and the pool keeps lending whatever else it
// has. Evicted connections are replaced toward Min afterwards.
func (p *Pool) sweep(ctx context.Context) {
	p.mu.Lock()
	if p.state != Ready || len(p.idle) == 0 {
		p.mu.Unlock()
		return
	}
	candidates := p.idle
	p.idle = nil
	p.probing += len(candidates)
	p.mu.Unlock()

	var probeErrs *multierror.Error
	healthy := make([]*pooledConn, 0, len(candidates))
	evicted := 0
	now := time.Now()

	for _, pc := range candidates {
		probeCtx, cancel := context.WithTimeout(ctx, p.cfg.ProbeTimeout)
		err := pc.conn.Ping(probeCtx)
		cancel()
		if err != nil {
			probeErrs = multierror.Append(probeErrs, err)
			evicted++
			_ = pc.conn.Close()
			continue
		}
		pc.lastValidated = now
		healthy = append(healthy, pc)
	}

	p.mu.Lock()
	p.probing -= len(candidates)
	if p.state != Ready {
		p.mu.Unlock()
		for _, pc := range healthy {
			_ = pc.conn.Close()
		}
		return
	}
	for _, pc := range healthy {
		p.handBack(pc)
	}
	p.cond.Broadcast()
	p.mu.Unlock()

	if evicted > 0 {
		p.log.ErrorWith("health sweep evicted connections", probeErrs.ErrorOrNil(), map[string]any{
			"evicted": evicted,
			"probed":  len(candidates),
		})
		p.topUp()
	}
}
