package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"ambient-assistant/internal/models"
	pb "ambient-assistant/proto"
)

// Client calls the Assistant service with domain types.
type Client struct {
	rpc  pb.AssistantClient
	conn *grpc.ClientConn
}

// Dial connects to addr without TLS. The service listens on loopback.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{rpc: pb.NewAssistantClient(conn), conn: conn}, nil
}

// NewClient wraps an existing connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{rpc: pb.NewAssistantClient(cc)}
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) Ask(ctx context.Context, q models.UserQuery, opts ...grpc.CallOption) (*pb.AskResponse, error) {
	return c.rpc.Ask(ctx, queryToProto(q), opts...)
}

func (c *Client) Feedback(ctx context.Context, f models.UserFeedback, opts ...grpc.CallOption) error {
	_, err := c.rpc.Feedback(ctx, &pb.FeedbackRequest{TurnId: f.TurnID, Sentiment: string(f.Sentiment)}, opts...)
	return err
}

func (c *Client) Pause(ctx context.Context, paused bool, opts ...grpc.CallOption) error {
	_, err := c.rpc.Pause(ctx, &pb.PauseRequest{Paused: paused}, opts...)
	return err
}

func (c *Client) Status(ctx context.Context, opts ...grpc.CallOption) (*models.PipelineStatus, error) {
	resp, err := c.rpc.Status(ctx, &pb.StatusRequest{}, opts...)
	if err != nil {
		return nil, err
	}
	st := statusFromProto(resp)
	return &st, nil
}

// WatchEvent is one answer stream event in domain types.
type WatchEvent struct {
	Type    string
	Partial *models.AnswerPartial
	Final   *models.Answer
}

// WatchStream receives answer events.
type WatchStream struct {
	stream pb.Assistant_WatchClient
}

func (w *WatchStream) Recv() (*WatchEvent, error) {
	ev, err := w.stream.Recv()
	if err != nil {
		return nil, err
	}
	return &WatchEvent{
		Type:    ev.GetType(),
		Partial: partialFromProto(ev.GetPartial()),
		Final:   answerFromProto(ev.GetFinal()),
	}, nil
}

// Watch opens an answer stream and returns once the server has subscribed.
func (c *Client) Watch(ctx context.Context, req *pb.WatchRequest, opts ...grpc.CallOption) (*WatchStream, error) {
	stream, err := c.rpc.Watch(ctx, req, opts...)
	if err != nil {
		return nil, err
	}
	w := &WatchStream{stream: stream}
	// The first event confirms the server is subscribed.
	if _, err := w.Recv(); err != nil {
		return nil, err
	}
	return w, nil
}

// Speak opens a client stream of audio for spoken queries.
func (c *Client) Speak(ctx context.Context, opts ...grpc.CallOption) (pb.Assistant_SpeakClient, error) {
	return c.rpc.Speak(ctx, opts...)
}
