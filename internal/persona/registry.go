// Package persona holds the character registry: named system-prompt texts
// plus per-user selections and custom variants. The registry is populated
// once at process start by the composition root; the ledger never interprets
// persona content.
package persona

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknown     = errors.New("persona: unknown persona")
	ErrCustomLimit = errors.New("persona: custom persona limit reached")
)

// Persona is a named system prompt.
type Persona struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Prompt      string `yaml:"prompt" json:"-"`
}

// Registry maps persona names to prompts and tracks per-user state.
type Registry struct {
	mu          sync.RWMutex
	dir         string
	defaultName string
	maxCustom   int

	system    map[string]Persona
	selection map[string]string             // userID -> persona name
	custom    map[string]map[string]Persona // userID -> name -> persona
}

// LoadDir builds a registry from the *.yaml persona files in dir. A missing
// directory yields an empty registry rather than an error.
func LoadDir(dir, defaultName string, maxCustom int) (*Registry, error) {
	r := &Registry{
		dir:         dir,
		defaultName: defaultName,
		maxCustom:   maxCustom,
		system:      make(map[string]Persona),
		selection:   make(map[string]string),
		custom:      make(map[string]map[string]Persona),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the persona directory, replacing the system set.
func (r *Registry) Reload() error {
	entries, err := os.ReadDir(r.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read persona directory: %w", err)
	}

	system := make(map[string]Persona)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(r.dir, name))
		if err != nil {
			return fmt.Errorf("read persona %s: %w", name, err)
		}
		var p Persona
		if err := yaml.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("parse persona %s: %w", name, err)
		}
		if p.Name == "" {
			p.Name = strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")
		}
		system[p.Name] = p
	}

	r.mu.Lock()
	r.system = system
	r.mu.Unlock()
	return nil
}

// System returns the sorted names of all system personas.
func (r *Registry) System() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.system))
	for name := range r.system {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get looks up a persona by name for the user: custom personas shadow system
// ones.
func (r *Registry) Get(userID, name string) (Persona, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.custom[userID][name]; ok {
		return p, true
	}
	p, ok := r.system[name]
	return p, ok
}

// Select sets the user's active persona. Returns ErrUnknown when the name
// matches neither a system persona nor one of the user's customs.
func (r *Registry) Select(userID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.custom[userID][name]; !ok {
		if _, ok := r.system[name]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknown, name)
		}
	}
	r.selection[userID] = name
	return nil
}

// ActiveFor returns the user's selected persona, falling back to the default
// and then to an empty persona when nothing is configured.
func (r *Registry) ActiveFor(userID string) Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.selection[userID]
	if !ok {
		name = r.defaultName
	}
	if p, ok := r.custom[userID][name]; ok {
		return p
	}
	if p, ok := r.system[name]; ok {
		return p
	}
	return Persona{}
}

// AddCustom stores a user-owned persona. Overwriting an existing custom of
// the same name is allowed; creating a new one past the cap fails with
// ErrCustomLimit.
func (r *Registry) AddCustom(userID string, p Persona) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrUnknown)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	owned := r.custom[userID]
	if owned == nil {
		owned = make(map[string]Persona)
		r.custom[userID] = owned
	}
	if _, exists := owned[p.Name]; !exists && len(owned) >= r.maxCustom {
		return fmt.Errorf("%w: max %d", ErrCustomLimit, r.maxCustom)
	}
	owned[p.Name] = p
	return nil
}

// RemoveCustom deletes a user-owned persona, reporting whether it existed.
func (r *Registry) RemoveCustom(userID, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	owned := r.custom[userID]
	if _, ok := owned[name]; !ok {
		return false
	}
	delete(owned, name)
	if r.selection[userID] == name {
		delete(r.selection, userID)
	}
	return true
}

// CustomFor returns the sorted names of the user's custom personas.
func (r *Registry) CustomFor(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.custom[userID]))
	for name := range r.custom[userID] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
