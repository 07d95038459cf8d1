package connection

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultPorts are the PostgreSQL ports probed on the local host
var DefaultPorts = []int{5432, 5433, 5434, 5435}

const probeTimeout = 500 * time.Millisecond

// OpenPorts returns the ports on host that accept TCP connections, in
// ascending order. Probes run concurrently and stop when ctx is done.
func OpenPorts(ctx context.Context, host string, ports []int) []int {
	if len(ports) == 0 {
		ports = DefaultPorts
	}

	open := make([]bool, len(ports))
	g, gctx := errgroup.WithContext(ctx)
	for i, port := range ports {
		g.Go(func() error {
			dialer := &net.Dialer{Timeout: probeTimeout}
			conn, err := dialer.DialContext(gctx, "tcp", net.JoinHostPort(host, fmt.Sprint(port)))
			if err == nil {
				conn.Close()
				open[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	var result []int
	for i, ok := range open {
		if ok {
			result = append(result, ports[i])
		}
	}
	slices.Sort(result)
	return result
}

// DiscoverLocalURL looks for a server listening on localhost and returns a
// URL for the current OS user's database on the lowest open port, or "".
func DiscoverLocalURL(ctx context.Context) string {
	ports := OpenPorts(ctx, "localhost", DefaultPorts)
	if len(ports) == 0 {
		return ""
	}
	return LocalURL("localhost", ports[0], os.Getenv("USER"))
}

// LocalURL builds a URL for user's same-named database
func LocalURL(host string, port int, user string) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, fmt.Sprint(port)),
	}
	if user != "" {
		u.User = url.User(user)
		u.Path = "/" + user
	}
	return u.String()
}
