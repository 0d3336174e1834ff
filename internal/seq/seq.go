// Package seq implements the uniform lazy, pull-based sequence
// abstraction that PaulDB's storage and query layers produce and
// consume. A Seq is single-use: once exhausted (or abandoned early) it
// must be rebuilt from its source to iterate again.
//
// The engine is single-threaded and cooperative: there are no
// goroutines here. A suspension point is simply a blocking call that
// may do I/O; ctx is threaded through so a caller can cancel a
// long-running pull (e.g. a buffering OrderBy) at its next boundary.
package seq

import "context"

// Seq is a single-consumer lazy sequence of T. Next returns the next
// element, or ok=false once the sequence is exhausted. A non-nil error
// aborts iteration; callers must stop pulling after an error.
type Seq[T any] interface {
	Next(ctx context.Context) (item T, ok bool, err error)
}

// Func adapts a plain function to Seq.
type Func[T any] func(ctx context.Context) (T, bool, error)

// Next implements Seq.
func (f Func[T]) Next(ctx context.Context) (T, bool, error) { return f(ctx) }

// FromSlice returns a Seq that yields items in order.
func FromSlice[T any](items []T) Seq[T] {
	i := 0
	return Func[T](func(ctx context.Context) (T, bool, error) {
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, false, err
		}
		if i >= len(items) {
			return zero, false, nil
		}
		v := items[i]
		i++
		return v, true, nil
	})
}

// Empty returns a Seq that yields nothing.
func Empty[T any]() Seq[T] {
	return Func[T](func(context.Context) (T, bool, error) {
		var zero T
		return zero, false, nil
	})
}

// Take yields at most n items from s, and — critically for Limit's
// fidelity invariant — never pulls an (n+1)-th item from s.
func Take[T any](s Seq[T], n int) Seq[T] {
	taken := 0
	return Func[T](func(ctx context.Context) (T, bool, error) {
		var zero T
		if taken >= n {
			return zero, false, nil
		}
		v, ok, err := s.Next(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		taken++
		return v, true, nil
	})
}

// Map applies f (which may itself suspend, e.g. on a sub-query) to each
// item of s.
func Map[T, U any](s Seq[T], f func(context.Context, T) (U, error)) Seq[U] {
	return Func[U](func(ctx context.Context) (U, bool, error) {
		var zero U
		v, ok, err := s.Next(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		u, err := f(ctx, v)
		if err != nil {
			return zero, false, err
		}
		return u, true, nil
	})
}

// Filter yields only items for which pred returns true, pulling from s
// until a match or exhaustion.
func Filter[T any](s Seq[T], pred func(context.Context, T) (bool, error)) Seq[T] {
	return Func[T](func(ctx context.Context) (T, bool, error) {
		var zero T
		for {
			v, ok, err := s.Next(ctx)
			if err != nil || !ok {
				return zero, false, err
			}
			keep, err := pred(ctx, v)
			if err != nil {
				return zero, false, err
			}
			if keep {
				return v, true, nil
			}
		}
	})
}

// ToSlice drains s fully, in order.
func ToSlice[T any](ctx context.Context, s Seq[T]) ([]T, error) {
	var out []T
	for {
		v, ok, err := s.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// ForEach drains s fully, calling f for each item. Iteration stops at
// the first error returned by f or by s.
func ForEach[T any](ctx context.Context, s Seq[T], f func(T) error) error {
	for {
		v, ok, err := s.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := f(v); err != nil {
			return err
		}
	}
}
