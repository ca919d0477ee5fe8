// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/thoughtprint/pkg/types"
)

var (
	// ErrProviderNotFound is returned when no provider has the given name.
	ErrProviderNotFound = errors.New("provider not found")
	// ErrDuplicateProvider is returned when adding a name that already exists.
	ErrDuplicateProvider = errors.New("provider already exists")
	// ErrNoProviderSelected is returned when the selection is empty.
	ErrNoProviderSelected = errors.New("no provider selected")
)

func indexOf(st *types.Settings, name string) int {
	for i, p := range st.Providers {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Selected returns the provider named by st.SelectedProvider.
func Selected(st types.Settings) (types.Provider, error) {
	if st.SelectedProvider == "" {
		return types.Provider{}, ErrNoProviderSelected
	}
	if i := indexOf(&st, st.SelectedProvider); i >= 0 {
		return st.Providers[i], nil
	}
	return types.Provider{}, fmt.Errorf("selected provider %q: %w", st.SelectedProvider, ErrProviderNotFound)
}

// Find returns the provider with the given name.
func Find(st types.Settings, name string) (types.Provider, error) {
	if i := indexOf(&st, name); i >= 0 {
		return st.Providers[i], nil
	}
	return types.Provider{}, fmt.Errorf("%q: %w", name, ErrProviderNotFound)
}

// AddProvider appends p. Names must be unique.
func (s *Store) AddProvider(p types.Provider) (types.Settings, error) {
	return s.update(func(st *types.Settings) error {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return errors.New("provider name is required")
		}
		if indexOf(st, p.Name) >= 0 {
			return fmt.Errorf("%q: %w", p.Name, ErrDuplicateProvider)
		}
		st.Providers = append(st.Providers, p)
		if st.SelectedProvider == "" {
			st.SelectedProvider = p.Name
		}
		return nil
	})
}

// UpdateProvider replaces the provider called name with p. Renaming keeps
// the selection pointing at the same provider.
func (s *Store) UpdateProvider(name string, p types.Provider) (types.Settings, error) {
	return s.update(func(st *types.Settings) error {
		i := indexOf(st, name)
		if i < 0 {
			return fmt.Errorf("%q: %w", name, ErrProviderNotFound)
		}
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			p.Name = name
		}
		if p.Name != name && indexOf(st, p.Name) >= 0 {
			return fmt.Errorf("%q: %w", p.Name, ErrDuplicateProvider)
		}
		st.Providers[i] = p
		if st.SelectedProvider == name {
			st.SelectedProvider = p.Name
		}
		return nil
	})
}

// RemoveProvider deletes the provider called name. When it was selected, the
// first remaining provider becomes selected, or the selection is cleared.
func (s *Store) RemoveProvider(name string) (types.Settings, error) {
	return s.update(func(st *types.Settings) error {
		i := indexOf(st, name)
		if i < 0 {
			return fmt.Errorf("%q: %w", name, ErrProviderNotFound)
		}
		st.Providers = append(st.Providers[:i], st.Providers[i+1:]...)
		if st.SelectedProvider == name {
			st.SelectedProvider = ""
			if len(st.Providers) > 0 {
				st.SelectedProvider = st.Providers[0].Name
			}
		}
		return nil
	})
}

// SelectProvider makes name the selected provider.
func (s *Store) SelectProvider(name string) (types.Settings, error) {
	return s.update(func(st *types.Settings) error {
		if indexOf(st, name) < 0 {
			return fmt.Errorf("cannot select %q: %w", name, ErrProviderNotFound)
		}
		st.SelectedProvider = name
		return nil
	})
}

// SetModel changes the model of the selected provider.
func (s *Store) SetModel(model string) (types.Settings, error) {
	return s.update(func(st *types.Settings) error {
		model = strings.TrimSpace(model)
		if model == "" {
			return errors.New("model name is required")
		}
		if st.SelectedProvider == "" {
			return ErrNoProviderSelected
		}
		i := indexOf(st, st.SelectedProvider)
		if i < 0 {
			return fmt.Errorf("selected provider %q: %w", st.SelectedProvider, ErrProviderNotFound)
		}
		st.Providers[i].Model = model
		return nil
	})
}

// SetSystemPrompt replaces the system prompt.
func (s *Store) SetSystemPrompt(prompt string) (types.Settings, error) {
	return s.update(func(st *types.Settings) error {
		st.SystemPrompt = prompt
		return nil
	})
}
