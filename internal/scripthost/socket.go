package scripthost

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Event names of the protocol.
const (
	EventEvaluate  = "evaluate"
	EventEvaluated = "evaluated"
)

// connectTimeout bounds Dial when ctx has no deadline.
const connectTimeout = 15 * time.Second

// SocketClient is a Client over a socket.io connection.
type SocketClient struct {
	io      *socket.Socket
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]chan Response
}

// Dial connects to the script host and waits for the connection.
func Dial(ctx context.Context, opts Options) (*SocketClient, error) {
	logger := ctxlog.FromContext(ctx).With("component", "scripthost", "url", opts.URL)
	logger.Info("Connecting to script host...")

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	sopts := socket.DefaultOptions()
	sopts.SetPath(parsedURL.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sopts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sopts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sopts)
	io := manager.Socket(opts.Namespace, sopts)

	c := &SocketClient{io: io, timeout: opts.Timeout, pending: make(map[string]chan Response)}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	io.On(types.EventName(EventEvaluated), c.onEvaluated)

	connectChan := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to script host.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := first(errs).(error)
		if err == nil {
			err = fmt.Errorf("%v", first(errs))
		}
		connectChan <- err
	})
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return c, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(connectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", connectTimeout)
	}
}

func first(args []any) any {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

func (c *SocketClient) onEvaluated(data ...any) {
	resp, err := decodeResponse(first(data))
	if err != nil {
		return
	}
	c.mu.Lock()
	ch, ok := c.pending[resp.ID]
	delete(c.pending, resp.ID)
	c.mu.Unlock()
	if ok {
		ch <- resp
	}
}

// decodeResponse accepts whatever the socket decoded (a map or raw json).
func decodeResponse(data any) (Response, error) {
	var raw []byte
	switch v := data.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return Response{}, err
		}
		raw = b
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Response{}, fmt.Errorf("malformed response: %w", err)
	}
	return resp, nil
}

// Evaluate emits the request and waits for the matching response.
func (c *SocketClient) Evaluate(ctx context.Context, req Request) (Response, error) {
	if !c.io.Connected() {
		return Response{}, ErrNotConnected
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	ch := make(chan Response, 1)
	c.mu.Lock()
	c.pending[req.ID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
	}()

	logger := ctxlog.FromContext(ctx).With("sid", c.io.Id(), "requestID", req.ID, "nodeType", req.Name)
	logger.Debug("Emitting script evaluation.")
	if err := c.io.Emit(EventEvaluate, req); err != nil {
		return Response{}, fmt.Errorf("failed to emit %s: %w", EventEvaluate, err)
	}

	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	select {
	case <-opCtx.Done():
		return Response{}, fmt.Errorf("timed out after %v waiting for event '%s'", c.timeout, EventEvaluated)
	case resp := <-ch:
		if resp.Error != "" {
			return resp, fmt.Errorf("script %s failed: %s", req.Name, resp.Error)
		}
		return resp, nil
	}
}

// Close disconnects.
func (c *SocketClient) Close() error {
	c.io.Disconnect()
	return nil
}

var _ Client = (*SocketClient)(nil)
