// Package grpcapi exposes the assistant's control surface over gRPC: manual
// queries, feedback, pause, status, a server stream of answers and a client
// stream of spoken-query audio.
package grpcapi

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ambient-assistant/internal/api"
	"ambient-assistant/internal/bus"
	"ambient-assistant/internal/models"
	"ambient-assistant/internal/observability/logging"
	"ambient-assistant/internal/schema"
	"ambient-assistant/internal/service/voice"
	pb "ambient-assistant/proto"
)

// VoiceThread is the default thread for spoken queries.
const VoiceThread = "voice"

// ServiceName is the fully qualified gRPC service name.
var ServiceName = pb.Assistant_ServiceDesc.ServiceName

// Watch event types.
const (
	// EventReady is sent once the stream is subscribed.
	EventReady   = "ready"
	EventPartial = "partial"
	EventFinal   = "final"
)

type Server struct {
	pb.UnimplementedAssistantServer

	control   *api.Control
	sub       bus.Subscriber
	publisher bus.Publisher
	voice     voice.Factory
	limits    voice.Limits
	logger    zerolog.Logger
}

// Bus is the event bus the server publishes to and watches.
type Bus interface {
	bus.Publisher
	bus.Subscriber
}

// New creates the server. A nil factory disables Speak.
func New(control *api.Control, b Bus, factory voice.Factory) *Server {
	return &Server{
		control:   control,
		sub:       b,
		publisher: b,
		voice:     factory,
		limits:    voice.DefaultLimits(),
		logger:    logging.WithComponent("grpc"),
	}
}

// Register registers s on g.
func Register(g *grpc.Server, s *Server) {
	pb.RegisterAssistantServer(g, s)
}

func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, schema.ErrInvalidEvent):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, bus.ErrClosed):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, voice.ErrLimitExceeded):
		return status.Error(codes.ResourceExhausted, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func (s *Server) Ask(_ context.Context, in *pb.AskRequest) (*pb.AskResponse, error) {
	if err := s.control.Ask(queryFromProto(in)); err != nil {
		return nil, toStatus(err)
	}
	return &pb.AskResponse{Accepted: true}, nil
}

func (s *Server) Feedback(_ context.Context, in *pb.FeedbackRequest) (*pb.Ack, error) {
	if err := s.control.Feedback(feedbackFromProto(in)); err != nil {
		return nil, toStatus(err)
	}
	return &pb.Ack{}, nil
}

func (s *Server) Pause(_ context.Context, in *pb.PauseRequest) (*pb.Ack, error) {
	if err := s.control.Pause(models.UserPause{Paused: in.GetPaused()}); err != nil {
		return nil, toStatus(err)
	}
	return &pb.Ack{}, nil
}

func (s *Server) Status(context.Context, *pb.StatusRequest) (*pb.StatusResponse, error) {
	return statusToProto(s.control.Status()), nil
}

// Watch streams answers until the client goes away.
func (s *Server) Watch(req *pb.WatchRequest, stream pb.Assistant_WatchServer) error {
	ctx := stream.Context()
	events := make(chan *pb.WatchEvent, 64)
	deliver := func(ev *pb.WatchEvent) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}
	match := func(thread string) bool {
		return req.GetThreadId() == "" || req.GetThreadId() == thread
	}

	err := bus.OnContext(ctx, s.sub, models.TopicAnswerFinal, func(_ context.Context, a models.Answer) error {
		if match(a.ThreadID) {
			deliver(&pb.WatchEvent{Type: EventFinal, Final: answerToProto(a)})
		}
		return nil
	})
	if err != nil {
		return toStatus(err)
	}
	if req.GetPartials() {
		err = bus.OnContext(ctx, s.sub, models.TopicAnswerPartial, func(_ context.Context, p models.AnswerPartial) error {
			if match(p.ThreadID) {
				deliver(&pb.WatchEvent{Type: EventPartial, Partial: partialToProto(p)})
			}
			return nil
		})
		if err != nil {
			return toStatus(err)
		}
	}

	if err := stream.Send(&pb.WatchEvent{Type: EventReady}); err != nil {
		return err
	}
	s.logger.Info().Str("thread_id", req.GetThreadId()).Bool("partials", req.GetPartials()).Msg("Watch stream opened")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if err := stream.Send(ev); err != nil {
				return err
			}
		}
	}
}

// Speak turns a client stream of audio into spoken queries.
func (s *Server) Speak(stream pb.Assistant_SpeakServer) error {
	if s.voice == nil {
		return status.Error(codes.Unimplemented, "voice queries are disabled")
	}
	ctx := stream.Context()

	first, err := stream.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return stream.SendAndClose(&pb.SpeakResponse{})
		}
		return err
	}
	thread := first.GetThreadId()
	if thread == "" {
		thread = VoiceThread
	}

	adapter, err := s.voice(ctx)
	if err != nil {
		return status.Error(codes.Unavailable, err.Error())
	}
	session := voice.NewSession(adapter, s.publisher, thread, s.limits)
	if err := session.Start(ctx); err != nil {
		_ = adapter.Close()
		return status.Error(codes.Unavailable, err.Error())
	}

	chunk := first
	for {
		if audio := chunk.GetAudio(); len(audio) > 0 {
			if err := session.SendAudio(ctx, audio); err != nil {
				_ = session.Close()
				return toStatus(err)
			}
		}
		chunk, err = stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			session.Drop("client stream error")
			_ = session.Close()
			return err
		}
	}

	if err := session.Close(); err != nil {
		s.logger.Warn().Err(err).Str("thread_id", thread).Msg("Speech session close failed")
	}
	return stream.SendAndClose(&pb.SpeakResponse{Asked: int32(session.Asked())})
}
