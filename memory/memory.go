package memory

import (
	"github.com/next-trace/scg-message-center/adapters/inmemory"
	"github.com/next-trace/scg-message-center/messagecenter"
)

// New constructs a message center relayed into a fresh in-memory adapter and
// returns both. Other centers can Bridge from the adapter to receive the
// relayed topics.
func New(opts ...messagecenter.Option) (*messagecenter.Center, *inmemory.Adapter) {
	ad := inmemory.New()
	c := messagecenter.New(append([]messagecenter.Option{messagecenter.WithRelay(ad)}, opts...)...)

	return c, ad
}
