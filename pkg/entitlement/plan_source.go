package entitlement

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"gopkg.in/yaml.v3"
)

// PlansListSource defines how plans are loaded into the service.
type PlansListSource interface {
	Load(ctx context.Context) (map[string]Plan, error)
}

type inMemSource struct {
	mu    sync.RWMutex
	plans map[string]Plan
}

// NewInMemSource returns an in-memory source holding copies of the given plans.
// Panics if no plans are provided so the service always has something to sell.
func NewInMemSource(plans ...Plan) PlansListSource {
	if len(plans) < 1 {
		panic("entitlement: at least one plan is required")
	}
	plansCopy := make(map[string]Plan, len(plans))
	for _, plan := range plans {
		plansCopy[plan.ID] = plan
	}
	return &inMemSource{plans: plansCopy}
}

// Load returns a copy of all plans held in memory.
func (s *inMemSource) Load(ctx context.Context) (map[string]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plansCopy := make(map[string]Plan, len(s.plans))
	for id, plan := range s.plans {
		plansCopy[id] = plan
	}
	return plansCopy, nil
}

type yamlCatalog struct {
	Currency string `yaml:"currency"`
	Plans    []Plan `yaml:"plans"`
}

type yamlSource struct {
	fsys fs.FS
	name string
}

// NewYAMLSource returns a source reading the plan catalog from a YAML file.
// Plans without a price currency inherit the catalog-level currency,
// and DefaultCurrency when neither is set.
//
//	currency: GBP
//	plans:
//	  - id: monthly
//	    name: Premium Monthly
//	    price: {amount: 2000}
//	    duration_days: 30
//	    interval: monthly
//	    public: true
func NewYAMLSource(fsys fs.FS, name string) PlansListSource {
	if fsys == nil {
		panic("entitlement: plan catalog filesystem is required")
	}
	return &yamlSource{fsys: fsys, name: name}
}

// Load parses the catalog file on every call.
func (s *yamlSource) Load(ctx context.Context) (map[string]Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(s.fsys, s.name)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan catalog %s: %w", s.name, err)
	}

	var catalog yamlCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, errors.Join(ErrInvalidPlanConfiguration, err)
	}

	cur := catalog.Currency
	if cur == "" {
		cur = DefaultCurrency
	}

	plans := make(map[string]Plan, len(catalog.Plans))
	for _, plan := range catalog.Plans {
		if plan.ID == "" {
			return nil, errors.Join(ErrInvalidPlanConfiguration, errors.New("plan without id"))
		}
		if _, dup := plans[plan.ID]; dup {
			return nil, errors.Join(ErrInvalidPlanConfiguration, fmt.Errorf("duplicate plan id %s", plan.ID))
		}
		if plan.Price.Currency == "" {
			plan.Price.Currency = cur
		}
		plans[plan.ID] = plan
	}
	return plans, nil
}
