package image

import "fmt"

// State is the loading state of a Resolver.
type State string

const (
	StateLoading     State = "loading"
	StateLoaded      State = "loaded"
	StateUnavailable State = "unavailable"
)

// Resolver walks a reference's candidates: each failure advances to the
// next one and running out ends in the unavailable state. Loaded and
// unavailable are final. A Resolver is owned by a single caller.
type Resolver struct {
	ref   Reference
	index int
	state State
}

// NewResolver starts at the first candidate. A reference without
// candidates is unavailable from the start.
func NewResolver(ref Reference) *Resolver {
	r := &Resolver{ref: ref, state: StateLoading}
	if len(ref.Candidates) == 0 {
		r.state = StateUnavailable
	}
	return r
}

// Resolve builds a reference for original and a resolver over it.
// Unusable URLs yield an unavailable resolver without error.
func Resolve(original string, opts ...Option) *Resolver {
	ref, _ := NewReference(original, opts...)
	return NewResolver(ref)
}

func (r *Resolver) Reference() Reference { return r.ref }
func (r *Resolver) State() State         { return r.state }
func (r *Resolver) Loading() bool        { return r.state == StateLoading }
func (r *Resolver) Failed() bool         { return r.state == StateUnavailable }

// Attempt is the 1-based index of the current candidate.
func (r *Resolver) Attempt() int { return r.index + 1 }

// Current returns the candidate being loaded or loaded. It reports false
// once the resolver is unavailable.
func (r *Resolver) Current() (Candidate, bool) {
	if r.state == StateUnavailable {
		return Candidate{}, false
	}
	return r.ref.Candidates[r.index], true
}

// Fail records that the current candidate did not load and moves to the
// next one. It reports false when no candidate is left or the resolver
// already settled.
func (r *Resolver) Fail() (Candidate, bool) {
	if r.state != StateLoading {
		return Candidate{}, false
	}
	if r.index+1 >= len(r.ref.Candidates) {
		r.state = StateUnavailable
		return Candidate{}, false
	}
	r.index++
	return r.ref.Candidates[r.index], true
}

// Loaded records that the current candidate loaded.
func (r *Resolver) Loaded() {
	if r.state == StateLoading {
		r.state = StateLoaded
	}
}

// Placeholder is the text shown in place of an unavailable image.
func (r *Resolver) Placeholder() string {
	return fmt.Sprintf("Image unavailable: %s", r.ref.Original)
}
