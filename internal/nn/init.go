package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Xavier returns an [outFeatures, inFeatures] weight matrix drawn from the
// Xavier/Glorot uniform distribution: U(-limit, limit) with
// limit = sqrt(6 / (fanIn + fanOut)).
func Xavier(inFeatures, outFeatures int, rng *rand.Rand) *mat.Dense {
	limit := math.Sqrt(6.0 / float64(inFeatures+outFeatures))
	data := make([]float64, outFeatures*inFeatures)
	for i := range data {
		data[i] = (2*rng.Float64() - 1) * limit
	}
	return mat.NewDense(outFeatures, inFeatures, data)
}
