package neoretro

// Pattern is the step list of a track, in practice just a slice of Steps,
// but provides convenience functions that return inactive steps for indices
// out of bounds, and phase-aligned access for the shared step counter.
type Pattern []Step

// Get returns the step at index; or an inactive step if the index is out of
// range.
func (p Pattern) Get(index int) Step {
	if index < 0 || index >= len(p) {
		return Step{}
	}
	return p[index]
}

// Phase maps the global step counter into this pattern: counter mod length,
// always non-negative. Returns -1 for an empty pattern.
func (p Pattern) Phase(counter int) int {
	if len(p) == 0 {
		return -1
	}
	return (counter%len(p) + len(p)) % len(p)
}

// NumActive returns the number of active steps.
func (p Pattern) NumActive() int {
	ret := 0
	for _, s := range p {
		if s.Active {
			ret++
		}
	}
	return ret
}
