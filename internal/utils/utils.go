package utils

import (
	"cmp"
	"slices"

	"golang.org/x/exp/constraints"

	"github.com/wildstyl3r/freegas/internal/constants"
)

func Argmax[T cmp.Ordered](arr []T) (argmax int) {
	for i := range arr {
		if cmp.Compare(arr[i], arr[argmax]) == 1 {
			argmax = i
		}
	}
	return
}

type Number interface {
	constraints.Float | constraints.Integer
}

func SumSlice[T Number](arr []T) (r T) {
	for i := range arr {
		r += arr[i]
	}
	return
}

func average[T Number](s []T) (mean float64) {
	for i := range s {
		mean += float64(s[i])
	}
	mean /= float64(len(s))
	return
}

// MeanAndVariance of s. The unbiased variance of a single sample is 0.
func MeanAndVariance[T Number](s []T, unbiased bool) (mean, variance float64) {
	mean = average(s)
	for i := range s {
		variance += (float64(s[i]) - mean) * (float64(s[i]) - mean)
	}
	if unbiased {
		if len(s) < 2 {
			return mean, 0
		}
		variance /= float64(len(s) - 1)
	} else {
		variance /= float64(len(s))
	}

	return
}

func IntAbs(a int) int {
	if a < 0 {
		return -a
	} else {
		return a
	}

}

func Intersect(a, b []string) *string {
	for i := range a {
		if slices.Contains(b, a[i]) {
			return &a[i]
		}
	}
	return nil
}

func MeV2eV(val float64) float64 {
	return val * constants.MeV2eV
}
