package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-zookeeper/zk"
)

// zkDialTimeout bounds the initial handshake with the ensemble; it does
// not bound how long a session stays open afterwards.
const zkDialTimeout = 10 * time.Second

// ZookeeperProvider reads and watches a single znode holding one of
// stoma's config documents. A run normally points Loader at a local
// YAML file (see ConfigTypeFile); this provider exists for the
// deployments that instead centralize config for many stoma workers in
// a shared ensemble.
type ZookeeperProvider struct {
	conn      *zk.Conn
	path      string
	endpoints []string
}

// NewZookeeperProvider dials the ensemble and holds a connection to it
// for the life of the provider. zk.Connect itself retries against the
// endpoint list internally, so no additional dial-retry loop is needed
// here.
func NewZookeeperProvider(endpoints []string, path string) (*ZookeeperProvider, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("zookeeper: no endpoints configured")
	}
	if path == "" {
		return nil, fmt.Errorf("zookeeper: no znode path configured")
	}

	conn, events, err := zk.Connect(endpoints, zkDialTimeout)
	if err != nil {
		return nil, fmt.Errorf("zookeeper: connect to %v: %w", endpoints, err)
	}

	if state, ok := waitForConnect(events, zkDialTimeout); !ok {
		conn.Close()
		return nil, fmt.Errorf("zookeeper: did not reach connected state (last: %s)", state)
	}

	return &ZookeeperProvider{conn: conn, path: path, endpoints: endpoints}, nil
}

// waitForConnect blocks until the session reaches zk.StateHasSession
// or the deadline passes, returning the last observed state either
// way. zk.Connect returns before the handshake completes, so callers
// that read the znode immediately can otherwise race a connection that
// isn't ready yet.
func waitForConnect(events <-chan zk.Event, timeout time.Duration) (zk.State, bool) {
	deadline := time.After(timeout)
	var last zk.State
	for {
		select {
		case ev := <-events:
			last = ev.State
			if ev.State == zk.StateHasSession {
				return last, true
			}
		case <-deadline:
			return last, false
		}
	}
}

// ReadBytes fetches the znode's current contents.
func (p *ZookeeperProvider) ReadBytes() ([]byte, error) {
	data, _, err := p.conn.Get(p.path)
	if err != nil {
		return nil, fmt.Errorf("zookeeper: read %s: %w", p.path, err)
	}
	return data, nil
}

// Watch blocks, invoking callback every time the znode's data changes,
// and returns only once the node is deleted. A GetW error is passed to
// callback and retried after a second. A dropped watch (zk.EventNotWatching) is re-armed automatically
// rather than treated as terminal, since it fires routinely on session
// re-establishment after a network blip.
func (p *ZookeeperProvider) Watch(callback func(event interface{}, err error)) error {
	for {
		data, _, eventCh, err := p.conn.GetW(p.path)
		if err != nil {
			callback(nil, fmt.Errorf("zookeeper: watch %s: %w", p.path, err))
			time.Sleep(time.Second)
			continue
		}

		event := <-eventCh

		switch event.Type {
		case zk.EventNodeDataChanged:
			callback(data, nil)
		case zk.EventNodeDeleted:
			callback(nil, fmt.Errorf("zookeeper: node %s deleted", p.path))
			return nil
		case zk.EventNotWatching:
			slog.Warn("zookeeper watch dropped, re-arming", "path", p.path)
			continue
		}
	}
}

func (p *ZookeeperProvider) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
