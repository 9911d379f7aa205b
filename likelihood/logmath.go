package likelihood

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// LogAddExp returns ln(exp(a) + exp(b)) computed without overflow, via
// gonum's LogSumExp over a two-element slice.
func LogAddExp(a, b float64) float64 {
	return floats.LogSumExp([]float64{a, b})
}

// LogSumExp returns ln(Σ exp(a[i])) computed without overflow. An empty or
// all-(-Inf) input (every term vanishingly improbable) returns -Inf rather
// than gonum's NaN (max=-Inf makes its exp(a[i]-max) term 0/0).
func LogSumExp(a []float64) float64 {
	if len(a) == 0 {
		return math.Inf(-1)
	}
	allNegInf := true
	for _, v := range a {
		if !math.IsInf(v, -1) {
			allNegInf = false
			break
		}
	}
	if allNegInf {
		return math.Inf(-1)
	}
	return floats.LogSumExp(a)
}

func logAddExp(a, b float64) float64 { return LogAddExp(a, b) }
func logSumExp(a []float64) float64  { return LogSumExp(a) }
