package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Houndarr.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Pause pauses hunting globally or for one instance.
func (c *Client) Pause(instance string) (*PauseResponse, error) {
	var resp PauseResponse
	if err := c.client.Call("Houndarr.Pause", PauseRequest{Instance: instance}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Resume resumes hunting globally or for one instance.
func (c *Client) Resume(instance string) (*ResumeResponse, error) {
	var resp ResumeResponse
	if err := c.client.Call("Houndarr.Resume", ResumeRequest{Instance: instance}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ForceRun queues a one-shot cycle for the instance.
func (c *Client) ForceRun(instance string) (*ForceRunResponse, error) {
	var resp ForceRunResponse
	if err := c.client.Call("Houndarr.ForceRun", ForceRunRequest{Instance: instance}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reset clears processed state for the instance, or all instances when empty.
func (c *Client) Reset(instance string) (*ResetResponse, error) {
	var resp ResetResponse
	if err := c.client.Call("Houndarr.Reset", ResetRequest{Instance: instance}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetDryRun toggles the global dry-run flag.
func (c *Client) SetDryRun(enabled bool) (*DryRunResponse, error) {
	var resp DryRunResponse
	if err := c.client.Call("Houndarr.SetDryRun", DryRunRequest{Enabled: enabled}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Strikes lists strike records, optionally for one instance.
func (c *Client) Strikes(instance string) (*StrikesResponse, error) {
	var resp StrikesResponse
	if err := c.client.Call("Houndarr.Strikes", StrikesRequest{Instance: instance}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Houndarr.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
