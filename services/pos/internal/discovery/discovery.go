// Package discovery registers the service instance in etcd under a leased
// key so peers can find it while it is alive.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const (
	DefaultPrefix = "/appetite/services/"
	LeaseTTL      = 30
	dialTimeout   = 5 * time.Second
)

type Instance struct {
	Name    string
	Address string
}

func (i Instance) Key(prefix string) string {
	return fmt.Sprintf("%s%s/%s", prefix, i.Name, i.Address)
}

// Registrar holds the lease for one instance. With no endpoints configured
// Start and Stop do nothing.
type Registrar struct {
	endpoints []string
	prefix    string
	instance  Instance
	logger    apt.Logger

	client  *clientv3.Client
	leaseID clientv3.LeaseID
	cancel  context.CancelFunc
}

func NewRegistrar(config *apt.Config, name string, logger apt.Logger) *Registrar {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	raw := config.GetStringOrDef("etcd.endpoints", "")
	webPort := strings.TrimPrefix(config.GetStringOrDef("web.port", ":8080"), ":")
	advertise := config.GetStringOrDef("etcd.advertise", "localhost:"+webPort)
	if strings.HasPrefix(advertise, ":") {
		advertise = "localhost" + advertise
	}

	return &Registrar{
		endpoints: ParseEndpoints(raw),
		prefix:    config.GetStringOrDef("etcd.prefix", DefaultPrefix),
		instance:  Instance{Name: name, Address: advertise},
		logger:    logger,
	}
}

// ParseEndpoints splits a comma separated endpoint list.
func ParseEndpoints(raw string) []string {
	var out []string
	for _, e := range strings.Split(raw, ",") {
		e = strings.TrimSpace(e)
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

func (r *Registrar) Enabled() bool {
	return len(r.endpoints) > 0
}

func (r *Registrar) Start(ctx context.Context) error {
	if !r.Enabled() {
		r.logger.Info("etcd registration disabled")
		return nil
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   r.endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return fmt.Errorf("cannot connect to etcd: %w", err)
	}

	lease, err := cli.Grant(ctx, LeaseTTL)
	if err != nil {
		_ = cli.Close()
		return fmt.Errorf("cannot create lease: %w", err)
	}

	key := r.instance.Key(r.prefix)
	if _, err := cli.Put(ctx, key, r.instance.Address, clientv3.WithLease(lease.ID)); err != nil {
		_ = cli.Close()
		return fmt.Errorf("cannot register service: %w", err)
	}

	kaCtx, cancel := context.WithCancel(context.Background())
	ch, err := cli.KeepAlive(kaCtx, lease.ID)
	if err != nil {
		cancel()
		_ = cli.Close()
		return fmt.Errorf("cannot keep lease alive: %w", err)
	}

	go func() {
		for range ch {
		}
		r.logger.Debug("etcd keepalive channel closed", "key", key)
	}()

	r.client = cli
	r.leaseID = lease.ID
	r.cancel = cancel
	r.logger.Info("registered in etcd", "key", key, "lease", int64(lease.ID))
	return nil
}

func (r *Registrar) Stop(ctx context.Context) error {
	if r.client == nil {
		return nil
	}

	r.cancel()
	key := r.instance.Key(r.prefix)
	if _, err := r.client.Delete(ctx, key); err != nil {
		r.logger.Error("cannot deregister from etcd", "key", key, "error", err)
	}
	if _, err := r.client.Revoke(ctx, r.leaseID); err != nil {
		r.logger.Debug("cannot revoke lease", "error", err)
	}

	err := r.client.Close()
	r.client = nil
	return err
}

// Discover lists the addresses registered for a service name.
func (r *Registrar) Discover(ctx context.Context, name string) ([]Instance, error) {
	if r.client == nil {
		return nil, fmt.Errorf("etcd registrar not started")
	}

	resp, err := r.client.Get(ctx, fmt.Sprintf("%s%s/", r.prefix, name), clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("cannot discover %s: %w", name, err)
	}

	out := make([]Instance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		out = append(out, Instance{Name: name, Address: string(kv.Value)})
	}
	return out, nil
}
