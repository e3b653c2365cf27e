package measurerpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"measure"

	"github.com/vmihailenco/msgpack/v5"
)

const maxPacketSize = 64 * 1024

// ErrRemote marks an error reported by the server in Response.Error.
var ErrRemote = errors.New("remote error")

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Serve answers requests arriving on conn until ctx is done. A request may
// span several datagrams; each peer gets its own PacketBuffer.
func (h *Handler) Serve(ctx context.Context, conn net.PacketConn) error {
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	h.logger().Info("serving conversions", "addr", conn.LocalAddr().String())
	peers := make(map[string]*PacketBuffer)
	packet := make([]byte, maxPacketSize)
	for {
		n, addr, err := conn.ReadFrom(packet)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read packet: %w", err)
		}

		peer := addr.String()
		pb, ok := peers[peer]
		if !ok {
			pb = &PacketBuffer{}
			peers[peer] = pb
		}
		reqs, err := pb.Feed(packet[:n])
		if err != nil {
			h.logger().Warn("dropping malformed stream", "peer", peer, "error", err)
			delete(peers, peer)
			continue
		}
		if pb.Buffered() == 0 {
			delete(peers, peer)
		}

		for _, req := range reqs {
			data, err := Encode(h.Handle(req))
			if err != nil {
				h.logger().Error("encode response", "id", req.ID, "error", err)
				continue
			}
			if _, err := conn.WriteTo(data, addr); err != nil {
				h.logger().Warn("send response", "peer", peer, "id", req.ID, "error", err)
			}
		}
	}
}

// Client sends requests to a Serve loop over UDP. Calls are serialised.
type Client struct {
	conn  net.Conn
	mutex sync.Mutex
	buf   []byte
}

func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn, buf: make([]byte, maxPacketSize)}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Call sends req and waits for the response carrying the same ID. Replies to
// earlier, abandoned calls are skipped.
func (c *Client) Call(ctx context.Context, req Request) (Response, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	data, err := Encode(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		return Response{}, err
	}
	if _, err := c.conn.Write(data); err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}

	for {
		n, err := c.conn.Read(c.buf)
		if err != nil {
			return Response{}, fmt.Errorf("read response: %w", err)
		}
		var resp Response
		if err := msgpack.Unmarshal(c.buf[:n], &resp); err != nil {
			return Response{}, fmt.Errorf("decode response: %w", err)
		}
		if resp.ID == req.ID {
			return resp, nil
		}
	}
}

// Convert asks the server to express q in target and links the answer to r.
func (c *Client) Convert(ctx context.Context, q measure.Quantity, target string, r *measure.Registry) (measure.Quantity, error) {
	resp, err := c.Call(ctx, NewRequest(OpTo, target, q))
	if err != nil {
		return measure.Quantity{}, err
	}
	if resp.Error != "" {
		return measure.Quantity{}, fmt.Errorf("%w: %s", ErrRemote, resp.Error)
	}
	if resp.Result == nil {
		return measure.Quantity{}, fmt.Errorf("%w: empty result", ErrRemote)
	}
	return resp.Result.ToQuantity(r), nil
}
