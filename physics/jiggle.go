package physics

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// jiggler supplies tiny deterministic offsets that separate coincident points.
// Values come from a simplex noise field addressed by the operands and the
// current tick, so the same layout is reproduced for the same seed and the
// field can be sampled from several goroutines at once.
type jiggler struct {
	noise opensimplex.Noise
	phase float64
}

func newJiggler(seed int64) *jiggler {
	return &jiggler{noise: opensimplex.New(seed)}
}

// advance moves the sampling plane for the next tick.
// Called between ticks only.
func (j *jiggler) advance(tick int) {
	j.phase = float64(tick)*0.1 + 0.25
}

// at returns an offset in (-1e-6, 1e-6), never zero
func (j *jiggler) at(a, b int) float64 {
	v := j.noise.Eval3(float64(a)*0.7548776662+0.5, float64(b)*0.5698402910+0.5, j.phase)
	if v == 0 {
		v = 0.5
	}
	return v * 1e-6
}
