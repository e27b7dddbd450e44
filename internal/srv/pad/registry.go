// Package pad holds the fixed set of pads of the grid and their resource bindings.
package pad

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jypelle/vekipad/apimodel"
)

// ErrInvalidPad is raised, through a panic, when a pad id outside 1..N reaches the registry
var ErrInvalidPad = errors.New("invalid pad")

type Pad struct {
	PadId apimodel.PadId
	// Path is the bound resource locator, empty when unbound
	Path  string
	State apimodel.PadState
}

// Label is the name displayed for the pad
func (p Pad) Label() string {
	if p.Path == "" {
		return "Sound " + p.PadId.String()
	}
	if strings.Contains(p.Path, "\\") {
		return path.Base(strings.ReplaceAll(p.Path, "\\", "/"))
	}
	return filepath.Base(p.Path)
}

// Registry owns the pads. Pads are created once at construction and never removed.
type Registry struct {
	lock sync.RWMutex
	pads []Pad
}

func NewRegistry(padCount int64) *Registry {
	if padCount < 1 {
		panic(fmt.Errorf("%w: pad count %d", ErrInvalidPad, padCount))
	}
	registry := Registry{pads: make([]Pad, padCount)}
	for i := range registry.pads {
		registry.pads[i] = Pad{PadId: apimodel.PadId(i + 1), State: apimodel.PadStateIdle}
	}
	return &registry
}

func (r *Registry) Count() int64 {
	return int64(len(r.pads))
}

// Contains reports whether padId designates a pad of the registry
func (r *Registry) Contains(padId apimodel.PadId) bool {
	return padId >= 1 && int64(padId) <= int64(len(r.pads))
}

func (r *Registry) index(padId apimodel.PadId) int {
	if !r.Contains(padId) {
		panic(fmt.Errorf("%w: %d not in 1..%d", ErrInvalidPad, padId, len(r.pads)))
	}
	return int(padId) - 1
}

// Bind overwrites the binding of padId. The locator is checked only when the pad is triggered.
func (r *Registry) Bind(padId apimodel.PadId, path string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.pads[r.index(padId)].Path = path
}

func (r *Registry) LookupBinding(padId apimodel.PadId) (string, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	p := r.pads[r.index(padId)].Path
	return p, p != ""
}

func (r *Registry) IsBound(padId apimodel.PadId) bool {
	_, ok := r.LookupBinding(padId)
	return ok
}

func (r *Registry) Pad(padId apimodel.PadId) Pad {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.pads[r.index(padId)]
}

// Pads returns a snapshot of every pad, ordered by id
func (r *Registry) Pads() []Pad {
	r.lock.RLock()
	defer r.lock.RUnlock()
	pads := make([]Pad, len(r.pads))
	copy(pads, r.pads)
	return pads
}

// Highlight marks padId as playing. Other pads keep their state: the engine unhighlights
// every pad before a new voice starts.
func (r *Registry) Highlight(padId apimodel.PadId) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.pads[r.index(padId)].State = apimodel.PadStatePlaying
}

func (r *Registry) UnhighlightAll() {
	r.lock.Lock()
	defer r.lock.Unlock()
	for i := range r.pads {
		r.pads[i].State = apimodel.PadStateIdle
	}
}

// PlayingPads lists the pads currently highlighted
func (r *Registry) PlayingPads() []apimodel.PadId {
	r.lock.RLock()
	defer r.lock.RUnlock()
	var playing []apimodel.PadId
	for _, p := range r.pads {
		if p.State == apimodel.PadStatePlaying {
			playing = append(playing, p.PadId)
		}
	}
	return playing
}
