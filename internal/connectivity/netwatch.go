package connectivity

import (
	"context"
	"net"
	"time"
)

const dialTimeout = 2 * time.Second

// NetworkWatcher feeds network-level online/offline transitions to a
// Monitor by periodically dialing the backend host. It is the gateway
// analog of the browser's online/offline events.
type NetworkWatcher struct {
	host     string
	interval time.Duration
	dial     func(network, addr string, timeout time.Duration) (net.Conn, error)
}

func NewNetworkWatcher(host string, interval time.Duration) *NetworkWatcher {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &NetworkWatcher{
		host:     host,
		interval: interval,
		dial:     net.DialTimeout,
	}
}

// Run checks reachability once immediately and then on every tick until ctx
// is cancelled.
func (w *NetworkWatcher) Run(ctx context.Context, monitor *Monitor) {
	if w.host == "" {
		return
	}

	monitor.SetOnline(w.check())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			monitor.SetOnline(w.check())
		}
	}
}

func (w *NetworkWatcher) check() bool {
	conn, err := w.dial("tcp", w.host, dialTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
