package provider

import "context"

// RequestResponse is a provider that takes one input and returns one
// output: a ledger RPC call or a pool state read.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}

// Func adapts a plain function into a RequestResponse.
type Func[I, O any] struct {
	ProviderName string
	Fn           func(ctx context.Context, input I) (O, error)
}

func (f Func[I, O]) Name() string                     { return f.ProviderName }
func (f Func[I, O]) IsAvailable(context.Context) bool { return f.Fn != nil }

func (f Func[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return f.Fn(ctx, input)
}
