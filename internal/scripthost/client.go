// Package scripthost talks to the remote script host that runs scripted
// evaluators.
//
// The script host is a socket.io server. For every evaluation the engine
// emits an "evaluate" event carrying a Request; the host runs the node's
// script and answers with an "evaluated" event carrying a Response with the
// same id. Scripts cannot touch evaluation state directly: the response lists
// the host calls the script made, which the engine then replays.
package scripthost

import (
	"context"
	"errors"
	"time"
)

// ErrNotConnected is returned when the socket is down.
var ErrNotConnected = errors.New("script host is not connected")

// Request asks the script host to run one scripted evaluator.
type Request struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Source     string         `json:"source"`
	Params     map[string]any `json:"parameters"`
	Evaluation map[string]any `json:"evaluation"`
	// InputSizes holds width and height per input slot, zero when unbound.
	InputSizes [][2]int `json:"inputSizes"`
}

// Call is one host function invocation made by a script.
type Call struct {
	Name string `json:"name"`
	Args []any  `json:"args"`
}

// Response is the outcome of a Request.
type Response struct {
	ID     string `json:"id"`
	Result int    `json:"result"`
	Calls  []Call `json:"calls"`
	Error  string `json:"error,omitempty"`
}

// Client runs scripts remotely.
type Client interface {
	Evaluate(ctx context.Context, req Request) (Response, error)
	Close() error
}

// Options configures Dial.
type Options struct {
	URL                string        `toml:"url"`
	Namespace          string        `toml:"namespace"`
	Timeout            time.Duration `toml:"-"`
	InsecureSkipVerify bool          `toml:"insecure_skip_verify"`
}

// DefaultTimeout bounds one evaluation round trip.
const DefaultTimeout = 10 * time.Second
