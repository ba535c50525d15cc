package grpcapi

import (
	"ambient-assistant/internal/models"
	pb "ambient-assistant/proto"
)

func queryFromProto(in *pb.AskRequest) models.UserQuery {
	return models.UserQuery{
		Text:     in.GetText(),
		Mode:     models.Mode(in.GetMode()),
		ThreadID: in.GetThreadId(),
		Voice:    in.GetVoice(),
	}
}

func queryToProto(q models.UserQuery) *pb.AskRequest {
	return &pb.AskRequest{
		Text:     q.Text,
		Mode:     string(q.Mode),
		ThreadId: q.ThreadID,
		Voice:    q.Voice,
	}
}

func feedbackFromProto(in *pb.FeedbackRequest) models.UserFeedback {
	return models.UserFeedback{
		TurnID:    in.GetTurnId(),
		Sentiment: models.Sentiment(in.GetSentiment()),
	}
}

func statusToProto(st models.PipelineStatus) *pb.StatusResponse {
	return &pb.StatusResponse{
		Paused:            st.Paused,
		PauseReasons:      st.PauseReasons,
		ActiveBackend:     st.ActiveBackend,
		InFlightRequestId: st.InFlightRequestID,
	}
}

func statusFromProto(in *pb.StatusResponse) models.PipelineStatus {
	return models.PipelineStatus{
		Paused:            in.GetPaused(),
		PauseReasons:      in.GetPauseReasons(),
		ActiveBackend:     in.GetActiveBackend(),
		InFlightRequestID: in.GetInFlightRequestId(),
	}
}

func partialToProto(p models.AnswerPartial) *pb.AnswerPartial {
	return &pb.AnswerPartial{
		TurnId:      p.TurnID,
		RequestId:   p.RequestID,
		ThreadId:    p.ThreadID,
		BackendUsed: p.BackendUsed,
		Text:        p.Text,
		Delta:       p.Delta,
		Attempt:     int32(p.Attempt),
	}
}

func partialFromProto(in *pb.AnswerPartial) *models.AnswerPartial {
	if in == nil {
		return nil
	}
	return &models.AnswerPartial{
		TurnID:      in.GetTurnId(),
		RequestID:   in.GetRequestId(),
		ThreadID:    in.GetThreadId(),
		BackendUsed: in.GetBackendUsed(),
		Text:        in.GetText(),
		Delta:       in.GetDelta(),
		Attempt:     int(in.GetAttempt()),
	}
}

func answerToProto(a models.Answer) *pb.Answer {
	return &pb.Answer{
		TurnId:      a.TurnID,
		Text:        a.Text,
		BackendUsed: a.BackendUsed,
		LatencyMs:   a.LatencyMs,
		Truncated:   a.Truncated,
		RequestId:   a.RequestID,
		ThreadId:    a.ThreadID,
		Question:    a.Question,
	}
}

func answerFromProto(in *pb.Answer) *models.Answer {
	if in == nil {
		return nil
	}
	return &models.Answer{
		TurnID:      in.GetTurnId(),
		Text:        in.GetText(),
		BackendUsed: in.GetBackendUsed(),
		LatencyMs:   in.GetLatencyMs(),
		Truncated:   in.GetTruncated(),
		RequestID:   in.GetRequestId(),
		ThreadID:    in.GetThreadId(),
		Question:    in.GetQuestion(),
	}
}
