package queue

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// LoadCounter reports how many non-terminal tickets are assigned to an agent.
type LoadCounter interface {
	CountActiveForAgent(ctx context.Context, agentID int64) (int, error)
}

// Roster filters agent ids down to those currently active.
type Roster interface {
	FilterActiveIDs(ctx context.Context, agentIDs []int64) ([]int64, error)
}

const defaultBalancerConcurrency = 8

// LoadBalancer picks the least loaded agent among a set of candidates.
type LoadBalancer struct {
	load        LoadCounter
	roster      Roster
	concurrency int
}

// NewLoadBalancer builds a balancer. concurrency bounds parallel count queries.
func NewLoadBalancer(load LoadCounter, roster Roster, concurrency int) *LoadBalancer {
	if concurrency <= 0 {
		concurrency = defaultBalancerConcurrency
	}
	return &LoadBalancer{load: load, roster: roster, concurrency: concurrency}
}

// PickLeastLoaded returns the active candidate with the fewest open tickets.
// Ties go to the candidate listed first. ok is false when no candidate is active.
func (b *LoadBalancer) PickLeastLoaded(ctx context.Context, candidates []int64) (agentID int64, ok bool, err error) {
	if len(candidates) == 0 {
		return 0, false, nil
	}
	active, err := b.roster.FilterActiveIDs(ctx, candidates)
	if err != nil {
		return 0, false, fmt.Errorf("filter active agents: %w", err)
	}
	eligible := eligibleInOrder(candidates, active)
	if len(eligible) == 0 {
		return 0, false, nil
	}

	counts := make([]int, len(eligible))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, id := range eligible {
		g.Go(func() error {
			n, err := b.load.CountActiveForAgent(gctx, id)
			if err != nil {
				return fmt.Errorf("count tickets for agent %d: %w", id, err)
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, false, err
	}

	best := 0
	for i := 1; i < len(eligible); i++ {
		if counts[i] < counts[best] {
			best = i
		}
	}
	return eligible[best], true, nil
}

// eligibleInOrder keeps candidates that are in active, in candidate order, without duplicates.
func eligibleInOrder(candidates, active []int64) []int64 {
	activeSet := make(map[int64]struct{}, len(active))
	for _, id := range active {
		activeSet[id] = struct{}{}
	}
	out := make([]int64, 0, len(candidates))
	seen := make(map[int64]struct{}, len(candidates))
	for _, id := range candidates {
		if _, ok := activeSet[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
