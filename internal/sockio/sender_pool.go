// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sockio

import (
	"github.com/momentics/hioload-transport/api"
	"github.com/momentics/hioload-transport/pool"
)

// DefaultSenderPoolCapacity bounds idle senders per pool.
const DefaultSenderPoolCapacity = 1024

// SenderPool recycles senders between connections.
type SenderPool struct {
	senders *pool.ObjectPool[*Sender]
}

// NewSenderPool creates a pool holding at most capacity idle senders.
func NewSenderPool(capacity int, continuations, driver api.Scheduler) *SenderPool {
	if capacity <= 0 {
		capacity = DefaultSenderPoolCapacity
	}
	return &SenderPool{
		senders: pool.NewObjectPool(pool.ObjectPoolConfig[*Sender]{
			Capacity: capacity,
			New:      func() *Sender { return NewSender(continuations, driver) },
			Reset:    (*Sender).Reset,
			Dispose:  (*Sender).Dispose,
		}),
	}
}

// Rent returns an idle sender or a new one.
func (p *SenderPool) Rent() *Sender { return p.senders.Get() }

// Return hands s back. Senders that are in flight, disposed or do not fit
// are disposed instead of kept.
func (p *SenderPool) Return(s *Sender) {
	if s == nil {
		return
	}
	p.senders.Put(s)
}

// Idle returns the number of pooled senders.
func (p *SenderPool) Idle() int { return p.senders.Len() }

// Close disposes idle senders; later returns dispose immediately.
func (p *SenderPool) Close() { p.senders.Close() }
