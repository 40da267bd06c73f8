// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package socket

import (
	"context"
	"fmt"
	"net"

	"github.com/containerd/log"
)

// Dialer opens outbound connections sharing one set of pools and queues.
type Dialer struct {
	dialer net.Dialer
	shared sharedResources
}

// NewDialer creates a Dialer.
func NewDialer(opts ...Option) *Dialer {
	o := buildOptions(opts)
	entry := o.Logger
	if entry == nil {
		entry = log.L
	}
	return &Dialer{
		dialer: net.Dialer{KeepAlive: o.KeepAlive},
		shared: newSharedResources(o, entry.WithField("dialer", true)),
	}
}

// Dial connects to address and returns an unstarted Connection.
func (d *Dialer) Dial(ctx context.Context, network, address string) (*Connection, error) {
	conn, err := d.dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("dial %s %s: %w", network, address, err)
	}
	return d.shared.wrap(conn), nil
}

// Close releases shared resources. Connections must be closed first.
func (d *Dialer) Close() error {
	d.shared.close()
	return nil
}
