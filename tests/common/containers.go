// Package common holds test helpers shared by integration suites.
package common

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// containerSpec describes a backing service started once per test process.
type containerSpec struct {
	name     string
	image    string
	imageEnv string // overrides image when set
	port     string
	cmd      []string
	readyLog string
}

// Container is a running backing service reachable on host:port.
type Container struct {
	container testcontainers.Container
	host      string
	port      string
}

type sharedContainer struct {
	once sync.Once
	c    *Container
	err  error
}

var (
	sharedMu   sync.Mutex
	sharedByID = map[string]*sharedContainer{}
)

// startShared starts spec on first use and returns the same container to
// every later caller. Short mode skips the test instead.
func startShared(t *testing.T, spec containerSpec) *Container {
	t.Helper()

	if testing.Short() {
		t.Skipf("%s container skipped in short mode", spec.name)
	}

	sharedMu.Lock()
	sc, ok := sharedByID[spec.name]
	if !ok {
		sc = &sharedContainer{}
		sharedByID[spec.name] = sc
	}
	sharedMu.Unlock()

	sc.once.Do(func() {
		sc.c, sc.err = runContainer(context.Background(), spec)
	})
	if sc.err != nil {
		t.Fatalf("%s container failed: %v", spec.name, sc.err)
	}
	return sc.c
}

func runContainer(ctx context.Context, spec containerSpec) (*Container, error) {
	image := spec.image
	if v := os.Getenv(spec.imageEnv); spec.imageEnv != "" && v != "" {
		image = v
	}
	port := spec.port + "/tcp"

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{port},
			Cmd:          spec.cmd,
			WaitingFor: wait.ForAll(
				wait.ForListeningPort(port),
				wait.ForLog(spec.readyLog),
			).WithDeadline(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start %s (%s): %w", spec.name, image, err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("%s host: %w", spec.name, err)
	}
	mapped, err := c.MappedPort(ctx, port)
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("%s port %s: %w", spec.name, port, err)
	}
	return &Container{container: c, host: host, port: mapped.Port()}, nil
}

// HostPort returns the mapped host:port.
func (c *Container) HostPort() string {
	return fmt.Sprintf("%s:%s", c.host, c.port)
}

// Cleanup terminates the container. Reaping normally handles this; call it
// from TestMain to stop early.
func (c *Container) Cleanup() {
	if c != nil && c.container != nil {
		_ = c.container.Terminate(context.Background())
	}
}
