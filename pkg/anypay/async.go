package anypay

import "context"

// Result carries the outcome of a call started with Async.
type Result[T any] struct {
	Value T
	Err   error
}

// Async runs fn in its own goroutine and delivers its outcome on the
// returned channel, which receives exactly one value.
//
//	balance := anypay.Async(ctx, client.Balance)
//	rates := anypay.Async(ctx, client.Rates)
//	b, r := <-balance, <-rates
func Async[T any](ctx context.Context, fn func(context.Context) (T, error)) <-chan Result[T] {
	out := make(chan Result[T], 1)
	go func() {
		v, err := fn(ctx)
		out <- Result[T]{Value: v, Err: err}
	}()
	return out
}
