// Package quadrature implements adaptive Gauss-Kronrod integration of scalar
// functions on bounded intervals.
package quadrature

import (
	"container/heap"
	"fmt"
	"math"
)

// 15-point Kronrod rule with the embedded 7-point Gauss rule. Abscissae are
// listed from the interval edge towards the midpoint, the last one is the
// midpoint itself.
var (
	kronrodAbscissae = [8]float64{
		0.991455371120812639206854697526329,
		0.949107912342758524526189684047851,
		0.864864423359769072789712788640926,
		0.741531185599394439863864773280788,
		0.586087235467691130294144838258730,
		0.405845151377397166906606412076961,
		0.207784955007898467600689403773245,
		0.000000000000000000000000000000000,
	}
	kronrodWeights = [8]float64{
		0.022935322010529224963732008058970,
		0.063092092629978553290700663189204,
		0.104790010322250183839876322541518,
		0.140653259715525918745189590510238,
		0.169004726639267902826583426598550,
		0.190350578064785409913256402421014,
		0.204432940075298892414161999234649,
		0.209482141084727828012999174891714,
	}
	gaussWeights = [4]float64{
		0.129484966168869693270611432679082,
		0.279705391489276667901467771423780,
		0.381830050505118944950369775488975,
		0.417959183673469387755102040816327,
	}
)

const (
	epsilon   = 2.220446049250313e-16
	minNormal = 2.2250738585072014e-308
)

// GaussKronrod integrates adaptively by bisecting the subinterval with the
// largest error estimate until the total error drops below
// max(AbsoluteTolerance, RelativeTolerance*|result|).
type GaussKronrod struct {
	AbsoluteTolerance float64
	RelativeTolerance float64
	SubintervalLimit  int
}

// Default returns the integrator settings used by the free gas engine.
func Default() GaussKronrod {
	return GaussKronrod{
		AbsoluteTolerance: 1e-4,
		RelativeTolerance: 0.,
		SubintervalLimit:  10000,
	}
}

// Validate reports settings under which the requested tolerance can never be met.
func (gk GaussKronrod) Validate() error {
	if gk.AbsoluteTolerance < 0 || gk.RelativeTolerance < 0 {
		return fmt.Errorf("quadrature: negative tolerance (abs %g, rel %g)", gk.AbsoluteTolerance, gk.RelativeTolerance)
	}
	if gk.SubintervalLimit <= 0 {
		return fmt.Errorf("quadrature: subinterval limit must be positive, got %d", gk.SubintervalLimit)
	}
	if gk.AbsoluteTolerance <= 0 && gk.RelativeTolerance < 50*epsilon {
		return fmt.Errorf("quadrature: tolerance cannot be achieved with rel %g and abs %g", gk.RelativeTolerance, gk.AbsoluteTolerance)
	}
	return nil
}

type bin struct {
	lower, upper float64
	result       float64
	err          float64
}

// binQueue keeps the bin with the largest error on top.
type binQueue []bin

func (q binQueue) Len() int           { return len(q) }
func (q binQueue) Less(i, j int) bool { return q[i].err > q[j].err }
func (q binQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *binQueue) Push(x any)        { *q = append(*q, x.(bin)) }

func (q *binQueue) Pop() any {
	old := *q
	n := len(old)
	b := old[n-1]
	*q = old[:n-1]
	return b
}

func (q *binQueue) replaceTop(b bin) {
	(*q)[0] = b
	heap.Fix(q, 0)
}

// Integrate returns the integral of f over [a, b] and an estimate of its
// absolute error. Falling short of the tolerance is not an error: the best
// estimate is returned together with the residual error.
func (gk GaussKronrod) Integrate(f func(float64) float64, a, b float64) (result, absErr float64) {
	if err := gk.Validate(); err != nil {
		panic(err)
	}
	if math.IsNaN(a) || math.IsNaN(b) {
		panic("quadrature: integration limit is NaN")
	}
	if a > b {
		panic(fmt.Sprintf("quadrature: invalid integration limits: %g !< %g", a, b))
	}
	if a == b {
		return 0, 0
	}

	first := bin{lower: a, upper: b}
	var resAbs, resAsc float64
	first.result, first.err, resAbs, resAsc = qk15(f, a, b)

	tolerance := math.Max(gk.AbsoluteTolerance, gk.RelativeTolerance*math.Abs(first.result))
	roundOff := 50 * epsilon * resAbs
	if first.err <= roundOff && first.err > tolerance {
		return first.result, first.err
	}
	if (first.err <= tolerance && first.err != resAsc) || first.err == 0 {
		return first.result, first.err
	}
	if gk.SubintervalLimit == 1 {
		return first.result, first.err
	}

	queue := binQueue{first}
	area := first.result
	absErr = first.err
	roundOff1, roundOff2 := 0, 0

	for last := 1; last < gk.SubintervalLimit; last++ {
		worst := queue[0]
		mid := 0.5 * (worst.lower + worst.upper)
		left := bin{lower: worst.lower, upper: mid}
		right := bin{lower: mid, upper: worst.upper}
		var leftAsc, rightAsc float64
		left.result, left.err, _, leftAsc = qk15(f, left.lower, left.upper)
		right.result, right.err, _, rightAsc = qk15(f, right.lower, right.upper)

		area12 := left.result + right.result
		err12 := left.err + right.err
		absErr += err12 - worst.err
		area += area12 - worst.result

		if leftAsc != left.err && rightAsc != right.err {
			delta := worst.result - area12
			if math.Abs(delta) <= 1e-5*math.Abs(area12) && err12 >= 0.99*worst.err {
				roundOff1++
			}
			if last >= 10 && err12 > worst.err {
				roundOff2++
			}
		}

		queue.replaceTop(left)
		heap.Push(&queue, right)

		tolerance = math.Max(gk.AbsoluteTolerance, gk.RelativeTolerance*math.Abs(area))
		if absErr <= tolerance {
			break
		}
		if roundOff1 >= 6 || roundOff2 >= 20 {
			break
		}
		if subintervalTooSmall(left.lower, right.lower, right.upper) {
			break
		}
	}

	// sum the bins again: the running area accumulates cancellation error
	result = 0
	for i := range queue {
		result += queue[i].result
	}
	return result, absErr
}

// qk15 applies the 15-point Kronrod rule on [a, b]. resAbs approximates the
// integral of |f| and resAsc the integral of |f - mean|, both are needed for
// the roundoff and error rescaling heuristics.
func qk15(f func(float64) float64, a, b float64) (result, absErr, resAbs, resAsc float64) {
	center := 0.5 * (a + b)
	halfLength := 0.5 * (b - a)
	absHalfLength := math.Abs(halfLength)

	var fLower, fUpper [7]float64
	fCenter := f(center)
	resultKronrod := fCenter * kronrodWeights[7]
	resultGauss := fCenter * gaussWeights[3]
	resAbs = math.Abs(resultKronrod)

	for j := range 7 {
		dx := halfLength * kronrodAbscissae[j]
		fLower[j] = f(center - dx)
		fUpper[j] = f(center + dx)
		sum := fLower[j] + fUpper[j]
		resultKronrod += kronrodWeights[j] * sum
		resAbs += kronrodWeights[j] * (math.Abs(fLower[j]) + math.Abs(fUpper[j]))
		if j%2 == 1 {
			resultGauss += gaussWeights[j/2] * sum
		}
	}

	mean := 0.5 * resultKronrod
	resAsc = kronrodWeights[7] * math.Abs(fCenter-mean)
	for j := range 7 {
		resAsc += kronrodWeights[j] * (math.Abs(fLower[j]-mean) + math.Abs(fUpper[j]-mean))
	}

	result = resultKronrod * halfLength
	resAbs *= absHalfLength
	resAsc *= absHalfLength
	absErr = rescaleError(math.Abs((resultKronrod-resultGauss)*halfLength), resAbs, resAsc)
	return
}

func rescaleError(err, resAbs, resAsc float64) float64 {
	if resAsc != 0 && err != 0 {
		scale := 200 * err / resAsc
		if scale < 1 {
			err = resAsc * math.Pow(scale, 1.5)
		} else {
			err = resAsc
		}
	}
	if resAbs > minNormal/(50*epsilon) {
		if minErr := 50 * epsilon * resAbs; minErr > err {
			err = minErr
		}
	}
	return err
}

func subintervalTooSmall(lower1, lower2, upper2 float64) bool {
	const c = 1.5
	tmax := math.Max(math.Abs(lower1), math.Abs(upper2))
	return tmax <= (1+1000*c*epsilon)*(math.Abs(lower2)+10000*minNormal)
}
