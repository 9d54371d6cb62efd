package txn

import "context"

type txnContextKey struct{}

// WithTransaction returns a copy of ctx carrying t.
func WithTransaction(ctx context.Context, t Transaction) context.Context {
	return context.WithValue(ctx, txnContextKey{}, t)
}

// FromContext returns the transaction carried by ctx, in whatever state.
func FromContext(ctx context.Context) (Transaction, bool) {
	t, ok := ctx.Value(txnContextKey{}).(Transaction)
	return t, ok && t != nil
}

// activeFromContext returns the transaction carried by ctx if it has
// started and not yet committed or aborted.
func activeFromContext(ctx context.Context) Transaction {
	t, ok := FromContext(ctx)
	if !ok || !t.core().isActive() {
		return nil
	}
	return t
}
