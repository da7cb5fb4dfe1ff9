// Package strategy provides the bar-series classifiers behind the scanner.
package strategy

import (
	"sync"

	"go.uber.org/zap"

	"github.com/stockrobo/stockrobo/pkg/types"
)

// Strategy names as registered and as carried on signals.
const (
	NameCDCActionZone = "CDCActionZone"
	NameFiboZone      = "FiboZone"
)

// Strategy is a bar-series classifier. Signals returns one zone signal per
// input bar: +1 buy zone, -1 sell zone, 0 neutral.
type Strategy interface {
	Name() string
	Signals(bars []types.PriceBar) []int
}

// Registry manages available strategies.
type Registry struct {
	logger     *zap.Logger
	strategies map[string]func() Strategy
	mu         sync.RWMutex
}

// NewRegistry creates a registry with the built-in strategies registered.
func NewRegistry(logger *zap.Logger) *Registry {
	r := &Registry{
		logger:     logger,
		strategies: make(map[string]func() Strategy),
	}

	r.Register(NameCDCActionZone, func() Strategy { return NewTrendClassifier() })
	r.Register(NameFiboZone, func() Strategy { return NewMeanReversionClassifier() })

	return r
}

// Register registers a new strategy factory.
func (r *Registry) Register(name string, factory func() Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[name] = factory
}

// Create creates a new strategy instance by name.
func (r *Registry) Create(name string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.strategies[name]
	if !ok {
		return nil, false
	}

	return factory(), true
}

// List returns all available strategy names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	return names
}
