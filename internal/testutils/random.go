package testutils

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/aretw0/rewind/pkg/domain"
)

// RandomConfig builds a random acyclic configuration with size nodes N0..N(size-1).
// Edges only go from lower to higher index; each node owns two fields; roughly a third of
// the nodes are aggregate. The same seed always yields the same configuration.
func RandomConfig(seed int64, size int) *domain.Config {
	rng := rand.New(rand.NewSource(seed))
	cfg := &domain.Config{
		Registry: make(domain.Registry, size),
		Graph:    make(domain.Graph),
		Rules: domain.RollbackRules{
			Clears:       make(map[string][]string),
			ReportsFixed: []string{"reports.fixed_a", "reports.fixed_b"},
		},
		Policies: domain.RollbackPolicies{
			Policies: []string{domain.PolicyFullDownstream, domain.PolicyAggregateOnly, domain.PolicyCustom},
		},
	}

	names := make([]string, size)
	for i := range names {
		names[i] = fmt.Sprintf("N%d", i)
	}
	for i, n := range names {
		cfg.Registry[n] = domain.NodeSpec{
			Produces: []string{fmt.Sprintf("f.%d.a", i), fmt.Sprintf("f.%d.b", i)},
		}
		for j := i + 1; j < size; j++ {
			if rng.Intn(3) == 0 {
				cfg.Graph[n] = append(cfg.Graph[n], names[j])
			}
		}
		if rng.Intn(3) == 0 {
			cfg.Policies.AggregateNodes = append(cfg.Policies.AggregateNodes, n)
		}
		// explicit rules that are a superset of produces keep the superset property meaningful
		if rng.Intn(4) == 0 {
			cfg.Rules.Clears[n] = slices.Concat(cfg.Registry[n].Produces, []string{fmt.Sprintf("f.%d.extra", i)})
		}
	}
	return cfg
}

// RandomHistory returns a random duplicate-free subset of the config's nodes in random order.
func RandomHistory(seed int64, cfg *domain.Config) domain.History {
	rng := rand.New(rand.NewSource(seed))
	var h domain.History
	for _, n := range cfg.Nodes() {
		if rng.Intn(2) == 0 {
			h = append(h, n)
		}
	}
	rng.Shuffle(len(h), func(i, j int) { h[i], h[j] = h[j], h[i] })
	return h
}
