package ipc

import (
	"bufio"
	"fmt"
	"net"
	"time"
)

// Client provides framed request/response access to the daemon socket.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
}

// Dial connects to the daemon socket at the given path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, reader: bufio.NewReader(conn)}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Do sends one request and reads its response. Calls on a single client are
// strictly sequential; the protocol has no pipelining.
func (c *Client) Do(req Request) (Response, error) {
	payload, err := EncodeRequest(req)
	if err != nil {
		return Response{}, err
	}
	if err := WriteFrame(c.conn, payload); err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}
	respPayload, err := ReadFrame(c.reader)
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	return DecodeResponse(respPayload)
}

// Submit queues a notification task on the daemon. Acceptance means
// "queued", not "delivered".
func (c *Client) Submit(task NotificationTask) error {
	resp, err := c.Do(Request{Type: MsgSubmit, Task: &task})
	if err != nil {
		return err
	}
	return expectOK(resp)
}

// Ping checks daemon liveness.
func (c *Client) Ping() error {
	resp, err := c.Do(Request{Type: MsgPing})
	if err != nil {
		return err
	}
	return expectOK(resp)
}

// Shutdown requests daemon termination. The daemon acknowledges before it
// finishes exiting.
func (c *Client) Shutdown() error {
	resp, err := c.Do(Request{Type: MsgShutdown})
	if err != nil {
		return err
	}
	return expectOK(resp)
}

// Reload requests a configuration reload.
func (c *Client) Reload() error {
	resp, err := c.Do(Request{Type: MsgReload})
	if err != nil {
		return err
	}
	return expectOK(resp)
}

// Status retrieves daemon runtime information.
func (c *Client) Status() (*StatusInfo, error) {
	resp, err := c.Do(Request{Type: MsgStatus})
	if err != nil {
		return nil, err
	}
	switch resp.Type {
	case RespStatus:
		return resp.Status, nil
	case RespError:
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	default:
		return nil, fmt.Errorf("unexpected response type %q", resp.Type)
	}
}

func expectOK(resp Response) error {
	switch resp.Type {
	case RespOK:
		return nil
	case RespError:
		return fmt.Errorf("daemon error: %s", resp.Error)
	default:
		return fmt.Errorf("unexpected response type %q", resp.Type)
	}
}
