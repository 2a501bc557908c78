// Package stage catalogs analysis stages and runs them in sequence.
package stage

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"ComedyAnalyzer/internal/domain"
)

// Stage is a single unit of derived-data computation. Run must not mutate in.
type Stage interface {
	Run(ctx context.Context, in State) (domain.StageOutput, error)
}

// Func adapts a plain function into a Stage.
type Func func(ctx context.Context, in State) (domain.StageOutput, error)

// Run calls f.
func (f Func) Run(ctx context.Context, in State) (domain.StageOutput, error) {
	return f(ctx, in)
}

// Definition describes a registered stage.
type Definition struct {
	ID                int           `json:"id"`
	Name              string        `json:"name"`
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	RequiredInputs    []string      `json:"requiredInputs"`
	OutputKey         string        `json:"outputKey"`
	Tier              domain.Tier   `json:"tier,omitempty"`
	EstimatedDuration time.Duration `json:"estimatedDuration"`
	Stage             Stage         `json:"-"`
}

// VisibleTo reports whether a caller on tier may see this stage.
// Stages without a tier are visible to everyone.
func (d Definition) VisibleTo(tier domain.Tier) bool {
	if d.Tier == "" {
		return true
	}
	switch tier {
	case domain.TierExpert:
		return true
	case domain.TierPro:
		return d.Tier != domain.TierExpert
	default:
		return d.Tier == domain.TierFree
	}
}

// Registry keeps stage definitions keyed by id. It is safe for concurrent use;
// in practice it is written at startup and only read afterwards.
type Registry struct {
	mu     sync.RWMutex
	stages map[int]Definition
	logger *slog.Logger
	now    func() time.Time
}

// NewRegistry builds an empty registry. logger may be nil.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		stages: map[int]Definition{},
		logger: logger,
		now:    time.Now,
	}
}

// Register stores def. A duplicate or malformed definition yields a *ConfigurationError.
func (r *Registry) Register(def Definition) error {
	if def.ID < 1 {
		return &ConfigurationError{StageID: def.ID, Err: fmt.Errorf("%w: id must be positive", ErrInvalidDefinition)}
	}
	if def.Stage == nil {
		return &ConfigurationError{StageID: def.ID, Err: fmt.Errorf("%w: no executor", ErrInvalidDefinition)}
	}
	if def.OutputKey == "" {
		return &ConfigurationError{StageID: def.ID, Err: fmt.Errorf("%w: empty output key", ErrInvalidDefinition)}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stages[def.ID]; ok {
		return &ConfigurationError{StageID: def.ID, Err: ErrDuplicateStage}
	}
	def.RequiredInputs = slices.Clone(def.RequiredInputs)
	r.stages[def.ID] = def
	r.debug("stage registered", "stage_id", def.ID, "name", def.Name, "tier", def.Tier)
	return nil
}

// MustRegister is Register for startup wiring; it panics on configuration errors.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Get returns the definition for id.
func (r *Registry) Get(id int) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.stages[id]
	return def, ok
}

// All returns every definition sorted by id ascending.
func (r *Registry) All() []Definition {
	r.mu.RLock()
	defs := make([]Definition, 0, len(r.stages))
	for _, def := range r.stages {
		defs = append(defs, def)
	}
	r.mu.RUnlock()

	slices.SortFunc(defs, func(a, b Definition) int { return a.ID - b.ID })
	return defs
}

// ByTier returns the definitions visible to tier, sorted by id.
func (r *Registry) ByTier(tier domain.Tier) []Definition {
	all := r.All()
	visible := make([]Definition, 0, len(all))
	for _, def := range all {
		if def.VisibleTo(tier) {
			visible = append(visible, def)
		}
	}
	return visible
}

func (r *Registry) debug(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

func (r *Registry) warn(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
