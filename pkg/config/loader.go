package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/rewind/pkg/domain"
	"github.com/aretw0/rewind/pkg/readiness"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Default file locations relative to a rule directory.
const (
	NodesFile     = "mappings/nodes.yaml"
	GraphFile     = "rules/node_graph.yaml"
	RulesFile     = "rules/rollback_rules.yaml"
	PoliciesFile  = "rules/rollback_policies.yaml"
	ReadinessFile = "rules/readiness.yaml"
)

// Files names every input of a configuration. Readiness is optional.
type Files struct {
	Nodes     string
	Graph     string
	Rules     string
	Policies  string
	Readiness string
}

// DefaultFiles returns the standard layout rooted at dir.
func DefaultFiles(dir string) Files {
	return Files{
		Nodes:     filepath.Join(dir, NodesFile),
		Graph:     filepath.Join(dir, GraphFile),
		Rules:     filepath.Join(dir, RulesFile),
		Policies:  filepath.Join(dir, PoliciesFile),
		Readiness: filepath.Join(dir, ReadinessFile),
	}
}

// Bundle is everything a rule directory configures.
type Bundle struct {
	Config  *domain.Config
	Profile readiness.Profile
}

type nodesFile struct {
	Nodes map[string]*domain.NodeSpec `mapstructure:"nodes"`
}

type graphFile struct {
	Edges          map[string][]string `mapstructure:"edges"`
	AggregateNodes []string            `mapstructure:"aggregate_nodes"`
}

type ruleEntry struct {
	Clears   []string `mapstructure:"clears"`
	ResetSet []string `mapstructure:"reset_set"`
}

type rulesFile struct {
	Rules        map[string]*ruleEntry `mapstructure:"rules"`
	ReportsFixed []string              `mapstructure:"reports_fixed"`
}

type legacyPolicy struct {
	AggregateNodes []string `mapstructure:"aggregate_nodes"`
	Definitions    any      `mapstructure:"definitions"`
}

type policiesFile struct {
	AggregateNodes []string      `mapstructure:"aggregate_nodes"`
	Policies       any           `mapstructure:"policies"`
	Policy         *legacyPolicy `mapstructure:"policy"`
}

// Load reads the standard layout rooted at dir.
func Load(dir string) (*Bundle, error) {
	return LoadFiles(DefaultFiles(dir))
}

// LoadFiles reads and normalizes the given files.
func LoadFiles(files Files) (*Bundle, error) {
	var nf nodesFile
	if err := decodeFile(files.Nodes, &nf); err != nil {
		return nil, err
	}
	var gf graphFile
	if err := decodeFile(files.Graph, &gf); err != nil {
		return nil, err
	}
	var rf rulesFile
	if err := decodeFile(files.Rules, &rf); err != nil {
		return nil, err
	}
	var pf policiesFile
	if err := decodeFile(files.Policies, &pf); err != nil {
		return nil, err
	}

	cfg, err := normalize(nf, gf, rf, pf)
	if err != nil {
		return nil, err
	}

	profile := readiness.DefaultProfile()
	if files.Readiness != "" {
		var override readiness.Profile
		err := decodeFile(files.Readiness, &override)
		switch {
		case err == nil:
			profile = profile.Merge(override)
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}

	return &Bundle{Config: cfg, Profile: profile}, nil
}

func normalize(nf nodesFile, gf graphFile, rf rulesFile, pf policiesFile) (*domain.Config, error) {
	if len(nf.Nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes defined", domain.ErrInvalidConfig)
	}

	cfg := &domain.Config{
		Registry: make(domain.Registry, len(nf.Nodes)),
		Graph:    make(domain.Graph, len(gf.Edges)),
		Rules: domain.RollbackRules{
			Clears:       make(map[string][]string, len(rf.Rules)),
			ReportsFixed: dedupe(rf.ReportsFixed),
		},
	}

	for name, spec := range nf.Nodes {
		if spec == nil {
			cfg.Registry[name] = domain.NodeSpec{}
			continue
		}
		cfg.Registry[name] = domain.NodeSpec{
			Produces: dedupe(spec.Produces),
			Consumes: dedupe(spec.Consumes),
		}
	}

	for from, to := range gf.Edges {
		cfg.Graph[from] = append([]string{}, to...)
	}

	for name, entry := range rf.Rules {
		var clears []string
		if entry != nil {
			clears = entry.Clears
			if clears == nil {
				clears = entry.ResetSet
			}
		}
		cfg.Rules.Clears[name] = dedupe(clears)
	}

	// Aggregate nodes may be declared in the graph file, the policy table or both; the
	// simulator and the checker see the same union.
	aggregate := slices.Concat(gf.AggregateNodes, pf.AggregateNodes)
	policies, err := policyNames(pf.Policies)
	if err != nil {
		return nil, err
	}
	if pf.Policy != nil {
		aggregate = append(aggregate, pf.Policy.AggregateNodes...)
		legacy, err := policyNames(pf.Policy.Definitions)
		if err != nil {
			return nil, err
		}
		policies = append(policies, legacy...)
	}
	cfg.Policies = domain.RollbackPolicies{
		AggregateNodes: dedupe(aggregate),
		Policies:       dedupe(policies),
	}
	return cfg, nil
}

// policyNames accepts either a table keyed by policy name or a plain list of names.
func policyNames(v any) ([]string, error) {
	switch p := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		names := make([]string, 0, len(p))
		for k := range p {
			names = append(names, k)
		}
		return names, nil
	case []any:
		var names []string
		if err := mapstructure.Decode(p, &names); err != nil {
			return nil, fmt.Errorf("%w: policies: %v", domain.ErrInvalidConfig, err)
		}
		return names, nil
	}
	return nil, fmt.Errorf("%w: policies must be a table or a list, got %T", domain.ErrInvalidConfig, v)
}

// decodeFile parses a YAML (or JSON) document into out via mapstructure.
func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc map[string]any
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to parse %s: %v", domain.ErrInvalidConfig, path, err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(doc); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, path, err)
	}
	return nil
}

// dedupe keeps the first occurrence of every name and drops empty names.
func dedupe(in []string) []string {
	if in == nil {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
