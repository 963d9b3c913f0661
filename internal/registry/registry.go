package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/openeduhub/kidra/internal/domain"
)

// ErrDuplicateName indicates a descriptor with the same name is already registered.
var ErrDuplicateName = errors.New("duplicate service name")

// ErrDuplicateAddress indicates two autostarted services would bind the same host:port.
var ErrDuplicateAddress = errors.New("duplicate service address")

// ErrNotFound indicates the requested service is not registered.
var ErrNotFound = errors.New("service not found")

// ErrReservedName indicates the name collides with one of the gateway's own routes.
var ErrReservedName = errors.New("reserved service name")

// reservedNames are served by the gateway itself under "/<name>".
var reservedNames = map[string]struct{}{
	"_ping":        {},
	"openapi.json": {},
	"metrics":      {},
	"infra":        {},
	"reload":       {},
	"healthz":      {},
	"readyz":       {},
	"v3":           {},
}

// Registry is an ordered, name-keyed collection of service descriptors.
//
// Registration order is significant: it is also the boot order.
// The registry is populated once at configuration time and only read afterwards;
// the lock keeps concurrent readers safe should registration ever overlap serving.
type Registry struct {
	mu        sync.RWMutex
	order     []string
	byName    map[string]domain.ServiceDescriptor
	autostart map[string]string // host:port -> owning service, autostart services only
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byName:    make(map[string]domain.ServiceDescriptor),
		autostart: make(map[string]string),
	}
}

// FromDescriptors builds a registry, rejecting the whole configuration on the first error.
func FromDescriptors(ds []domain.ServiceDescriptor) (*Registry, error) {
	r := New()
	for _, d := range ds {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register validates and stores a copy of d.
// Returns ErrDuplicateName if d.Name is taken and ErrDuplicateAddress when an
// autostart service would share host:port with another autostart service.
func (r *Registry) Register(d domain.ServiceDescriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}

	if _, reserved := reservedNames[d.Name]; reserved {
		return fmt.Errorf("%w: %q", ErrReservedName, d.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[d.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, d.Name)
	}

	addr := d.HostPort()
	if d.Autostart && addr != "" {
		if owner, taken := r.autostart[addr]; taken {
			return fmt.Errorf("%w: %q and %q both autostart on %s",
				ErrDuplicateAddress, owner, d.Name, addr)
		}
		r.autostart[addr] = d.Name
	}

	r.byName[d.Name] = d.Clone()
	r.order = append(r.order, d.Name)
	return nil
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (domain.ServiceDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byName[name]
	if !ok {
		return domain.ServiceDescriptor{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return d.Clone(), nil
}

// All returns every descriptor in registration order.
func (r *Registry) All() []domain.ServiceDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ServiceDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name].Clone())
	}
	return out
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered services.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}
