package measurerpc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"measure"
	measuremsgpack "measure/msgpack"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	OpTo   = "to"
	OpAdd  = "add"
	OpSub  = "sub"
	OpMul  = "mul"
	OpDiv  = "div"
	OpLess = "lt"
)

type Request struct {
	ID     string                    `msgpack:"id"`
	Op     string                    `msgpack:"op"`
	Args   []measuremsgpack.Quantity `msgpack:"args,omitempty"`
	Target string                    `msgpack:"target,omitempty"`
}

type Response struct {
	ID     string                   `msgpack:"id"`
	Result *measuremsgpack.Quantity `msgpack:"result,omitempty"`
	Less   bool                     `msgpack:"less,omitempty"`
	Error  string                   `msgpack:"error,omitempty"`
}

func NewRequest(op, target string, args ...measure.Quantity) Request {
	req := Request{ID: uuid.New().String(), Op: op, Target: target}
	for _, q := range args {
		req.Args = append(req.Args, measuremsgpack.NewQuantity(q))
	}
	return req
}

// Encode writes one framed message. Messages are plain msgpack values
// written back to back.
func Encode(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// PacketBuffer collects bytes from a stream and hands out the requests
// that are complete. Partial messages stay buffered until the next Feed.
type PacketBuffer struct {
	buf bytes.Buffer
}

func (pb *PacketBuffer) Feed(data []byte) ([]*Request, error) {
	pb.buf.Write(data)

	var results []*Request
	for pb.buf.Len() > 0 {
		rd := bytes.NewReader(pb.buf.Bytes())
		dec := msgpack.NewDecoder(rd)
		v := new(Request)
		if err := dec.Decode(v); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				// not enough data yet, stop
				break
			}
			return results, err
		}
		pb.buf.Next(pb.buf.Len() - rd.Len())
		results = append(results, v)
	}
	return results, nil
}

// Buffered is the number of bytes waiting for the rest of a message.
func (pb *PacketBuffer) Buffered() int {
	return pb.buf.Len()
}

// Handler evaluates requests against a registry.
type Handler struct {
	Registry *measure.Registry
	Logger   *slog.Logger
}

func (h *Handler) Handle(req *Request) Response {
	resp := Response{ID: req.ID}
	result, less, err := h.eval(req)
	if err != nil {
		h.logger().Debug("request failed", "id", req.ID, "op", req.Op, "error", err)
		resp.Error = err.Error()
		return resp
	}
	if result != nil {
		w := measuremsgpack.NewQuantity(*result)
		resp.Result = &w
	}
	resp.Less = less
	return resp
}

func (h *Handler) eval(req *Request) (*measure.Quantity, bool, error) {
	args := make([]measure.Quantity, len(req.Args))
	for i, a := range req.Args {
		if err := a.Validate(); err != nil {
			return nil, false, fmt.Errorf("%s arg %d: %w", req.Op, i, err)
		}
		args[i] = a.ToQuantity(h.Registry)
	}

	want := 2
	if req.Op == OpTo {
		want = 1
	}
	if len(args) != want {
		return nil, false, fmt.Errorf("%s takes %d quantities, got %d: %w", req.Op, want, len(args), measure.ErrInvalidOperand)
	}

	var (
		q   measure.Quantity
		err error
	)
	switch req.Op {
	case OpTo:
		q, err = args[0].ToName(req.Target)
	case OpAdd:
		q, err = args[0].Add(args[1])
	case OpSub:
		q, err = args[0].Sub(args[1])
	case OpMul:
		q = args[0].Mul(args[1])
	case OpDiv:
		q = args[0].Div(args[1])
	case OpLess:
		less, err := args[0].Less(args[1])
		return nil, less, err
	default:
		return nil, false, fmt.Errorf("unknown op %q: %w", req.Op, measure.ErrInvalidOperand)
	}
	if err != nil {
		return nil, false, err
	}
	return &q, false, nil
}
