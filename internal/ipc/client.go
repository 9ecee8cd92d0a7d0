package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// DialTimeout bounds how long Dial waits for the daemon socket.
const DialTimeout = 2 * time.Second

// Client is a JSON-RPC connection to the daemon. It is not safe to share a
// Client across goroutines that also Close it.
type Client struct {
	rpc *rpc.Client
}

// Dial connects to the daemon listening on the unix socket at path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, DialTimeout)
	if err != nil {
		return nil, err
	}
	return &Client{rpc: rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))}, nil
}

// Close closes the connection.
func (c *Client) Close() error { return c.rpc.Close() }

func call[Resp any](c *Client, method string, req any) (*Resp, error) {
	resp := new(Resp)
	if err := c.rpc.Call(ServiceName+"."+method, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Start resumes observation.
func (c *Client) Start() (*StartResponse, error) {
	return call[StartResponse](c, "Start", StartRequest{})
}

// Stop pauses observation; the daemon process keeps running.
func (c *Client) Stop() (*StopResponse, error) {
	return call[StopResponse](c, "Stop", StopRequest{})
}

func (c *Client) Status() (*StatusResponse, error) {
	return call[StatusResponse](c, "Status", StatusRequest{})
}

// History lists up to limit recent track changes, newest first.
func (c *Client) History(limit int) (*HistoryResponse, error) {
	return call[HistoryResponse](c, "History", HistoryRequest{Limit: limit})
}

func (c *Client) HistoryStats() (*HistoryStatsResponse, error) {
	return call[HistoryStatsResponse](c, "HistoryStats", HistoryStatsRequest{})
}

func (c *Client) HistoryClear() (*HistoryClearResponse, error) {
	return call[HistoryClearResponse](c, "HistoryClear", HistoryClearRequest{})
}

// Reload re-reads the playing track's lyric file from disk.
func (c *Client) Reload() (*ReloadResponse, error) {
	return call[ReloadResponse](c, "Reload", ReloadRequest{})
}

// LogTail reads daemon log lines. With Follow set it blocks up to
// WaitMillis for new output.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	return call[LogTailResponse](c, "LogTail", req)
}
