package common

import "testing"

var surrealSpec = containerSpec{
	name:     "SurrealDB",
	image:    "surrealdb/surrealdb:v3.0.0",
	imageEnv: "HERITAGE_TEST_SURREALDB_IMAGE",
	port:     "8000",
	cmd:      []string{"start", "--user", "root", "--pass", "root"},
	readyLog: "Started web server",
}

// SurrealDBContainer is the shared SurrealDB instance, signed in as root/root.
type SurrealDBContainer struct {
	*Container
}

// StartSurrealDB returns the process-wide SurrealDB container. Callers
// isolate themselves by database name.
func StartSurrealDB(t *testing.T) *SurrealDBContainer {
	t.Helper()
	return &SurrealDBContainer{startShared(t, surrealSpec)}
}

// Address is the WebSocket RPC endpoint.
func (c *SurrealDBContainer) Address() string {
	return "ws://" + c.HostPort() + "/rpc"
}
