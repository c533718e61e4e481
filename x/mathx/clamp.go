package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	return Min(Max(v, lo), hi)
}

// InRange reports lo <= v && v <= hi. Used for register field validation,
// so the bounds are not reordered.
func InRange[T constraints.Ordered](v, lo, hi T) bool {
	return v >= lo && v <= hi
}

func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Max3 and Min3 pick the extreme of three channel values.
func Max3[T constraints.Ordered](a, b, c T) T { return Max(Max(a, b), c) }
func Min3[T constraints.Ordered](a, b, c T) T { return Min(Min(a, b), c) }

// Abs for signed integers.
func Abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}
