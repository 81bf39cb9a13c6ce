package ports

import "context"

// QRNotifier fans out "this QR code was bound" events to whichever request is
// long-polling on the code, possibly on another instance.
type QRNotifier interface {
	Publish(ctx context.Context, code string) error
	// Subscribe returns a channel that receives once the code is published.
	// The returned func releases the subscription and must always be called.
	Subscribe(ctx context.Context, code string) (<-chan struct{}, func(), error)
}
