package synth

// Noise is a multiplicative congruential generator. The same seed always
// produces the same sequence, so a voice seeded with a fixed value renders
// identical samples on every run.
type Noise uint32

// NewNoise returns a generator for the seed. Even seeds are made odd, as the
// generator would otherwise collapse to zero.
func NewNoise(seed uint32) Noise {
	return Noise(seed | 1)
}

// Next returns a value in [-1, 1].
func (n *Noise) Next() float32 {
	*n *= 16007
	return float32(int32(*n)) / -2147483648.0
}
