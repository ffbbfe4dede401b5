package padsubmit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// DefaultService is the mDNS service type advertised by
// classification servers on the local network.
const DefaultService = "_digitclassifier._tcp"

// DefaultPath is the prediction route used when
// the service does not advertise a "path=" TXT record.
const DefaultPath = "/predict/"

// ErrNoService is returned by Discover when no server answered.
var ErrNoService = errors.New("no classification service found")

// Discover looks up `service` on the local network and returns
// the endpoint of the first server found. The lookup stops after
// `timeout` or when `ctx` is done.
func Discover(ctx context.Context, service string, timeout time.Duration) (string, error) {
	if service == "" {
		service = DefaultService
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	entries := make(chan *mdns.ServiceEntry, 8)
	collected := make(chan string, 1)
	go func() {
		var first string
		for e := range entries {
			if endpoint, ok := endpointOf(e); ok && first == "" {
				first = endpoint
			}
		}
		collected <- first
	}()

	params := mdns.DefaultParams(service)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	queried := make(chan error, 1)
	go func() {
		err := mdns.QueryContext(ctx, params)
		close(entries) // no more sends once the query returned
		queried <- err
	}()

	var err error
	select {
	case err = <-queried:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	endpoint := <-collected
	switch {
	case endpoint != "":
		return endpoint, nil
	case ctx.Err() != nil:
		return "", ctx.Err()
	case err != nil:
		return "", fmt.Errorf("mdns lookup of %s: %w", service, err)
	default:
		return "", ErrNoService
	}
}

// endpointOf builds the URL advertised by `e`.
func endpointOf(e *mdns.ServiceEntry) (string, bool) {
	if e == nil || e.Port == 0 {
		return "", false
	}
	var host string
	switch {
	case e.AddrV4 != nil:
		host = e.AddrV4.String()
	case e.AddrV6 != nil:
		host = e.AddrV6.String()
	default:
		return "", false
	}
	path := DefaultPath
	for _, field := range e.InfoFields {
		if v, ok := strings.CutPrefix(field, "path="); ok && v != "" {
			path = v
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}
		}
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(e.Port)) + path, true
}
