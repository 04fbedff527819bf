package batch

// Array helpers over record and person rows. Every helper allocates its
// result; inputs are never modified.

// arange returns [0, 1, ..., n-1].
func arange(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}

	return out
}

// offsets returns the exclusive running sum of counts and the total.
func offsets(counts []int) ([]int, int) {
	out := make([]int, len(counts))
	total := 0

	for i, c := range counts {
		out[i] = total
		total += c
	}

	return out, total
}

// repeat returns values[i] repeated counts[i] times, in order.
func repeat(values, counts []int, total int) []int {
	out := make([]int, 0, total)
	for i, v := range values {
		for range counts[i] {
			out = append(out, v)
		}
	}

	return out
}

// gather returns src[idx[i]] for every i.
func gather[T any](src []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = src[j]
	}

	return out
}

// sub returns a[i] - b[i].
func sub(a, b []int) []int {
	out := make([]int, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}

	return out
}

// full returns n copies of v.
func full(n int, v float64) []float64 {
	out := make([]float64, n)
	if v != 0 {
		for i := range out {
			out[i] = v
		}
	}

	return out
}

// where returns a[i] when mask[i], else b[i].
func where(mask []bool, a, b []float64) []float64 {
	out := make([]float64, len(mask))
	for i, m := range mask {
		if m {
			out[i] = a[i]
		} else {
			out[i] = b[i]
		}
	}

	return out
}

// indicator converts a mask to 0/1 values.
func indicator(mask []bool) []float64 {
	out := make([]float64, len(mask))
	for i, m := range mask {
		if m {
			out[i] = 1
		}
	}

	return out
}

// toFloat converts integer values.
func toFloat[T ~int | ~int64](values []T) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}

	return out
}

// add returns a[i] + b[i].
func add(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}

	return out
}

// scale returns a[i] * k.
func scale(a []float64, k float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] * k
	}

	return out
}
