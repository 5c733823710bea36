package gateway

import "context"

// Gateway is a user-facing conversation surface (console today; the
// interface leaves room for other front ends).
type Gateway interface {
	// Run drives the interaction loop until the user ends the session or
	// ctx is canceled.
	Run(ctx context.Context) error
}
