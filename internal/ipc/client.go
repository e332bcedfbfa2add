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

// Start requests the daemon to start processing.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Ferry.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Ferry.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Ferry.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadAdd queues a file for upload.
func (c *Client) UploadAdd(req UploadAddRequest) (*UploadAddResponse, error) {
	var resp UploadAddResponse
	if err := c.client.Call("Ferry.UploadAdd", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadStart begins transmission for a queued upload.
func (c *Client) UploadStart(id string) error {
	var resp UploadControlResponse
	return c.client.Call("Ferry.UploadStart", UploadControlRequest{ID: id}, &resp)
}

// UploadPause suspends a running upload.
func (c *Client) UploadPause(id string) error {
	var resp UploadControlResponse
	return c.client.Call("Ferry.UploadPause", UploadControlRequest{ID: id}, &resp)
}

// UploadResume continues a paused or failed upload.
func (c *Client) UploadResume(id string) error {
	var resp UploadControlResponse
	return c.client.Call("Ferry.UploadResume", UploadControlRequest{ID: id}, &resp)
}

// UploadCancel terminates an upload.
func (c *Client) UploadCancel(id string) error {
	var resp UploadControlResponse
	return c.client.Call("Ferry.UploadCancel", UploadControlRequest{ID: id}, &resp)
}

// UploadRemove discards an upload record.
func (c *Client) UploadRemove(id string) error {
	var resp UploadControlResponse
	return c.client.Call("Ferry.UploadRemove", UploadControlRequest{ID: id}, &resp)
}

// UploadList returns upload snapshots, optionally filtered by state.
func (c *Client) UploadList(req UploadListRequest) (*UploadListResponse, error) {
	var resp UploadListResponse
	if err := c.client.Call("Ferry.UploadList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadDescribe returns details for a single upload.
func (c *Client) UploadDescribe(id string) (*UploadDescribeResponse, error) {
	var resp UploadDescribeResponse
	if err := c.client.Call("Ferry.UploadDescribe", UploadDescribeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadCleanup removes finished upload records.
func (c *Client) UploadCleanup(failedOnly bool) (*UploadCleanupResponse, error) {
	var resp UploadCleanupResponse
	if err := c.client.Call("Ferry.UploadCleanup", UploadCleanupRequest{FailedOnly: failedOnly}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// NotificationList returns recent notifications.
func (c *Client) NotificationList(limit int) (*NotificationListResponse, error) {
	var resp NotificationListResponse
	if err := c.client.Call("Ferry.NotificationList", NotificationListRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// NotificationDismiss removes one notification by id.
func (c *Client) NotificationDismiss(id int64) error {
	var resp NotificationDismissResponse
	return c.client.Call("Ferry.NotificationDismiss", NotificationDismissRequest{ID: id}, &resp)
}

// NotificationClear empties the notification log.
func (c *Client) NotificationClear() error {
	var resp NotificationClearResponse
	return c.client.Call("Ferry.NotificationClear", NotificationClearRequest{}, &resp)
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Ferry.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
