package grpcapi

import (
	"testing"

	"google.golang.org/protobuf/proto"

	"ambient-assistant/internal/models"
	pb "ambient-assistant/proto"
)

func TestServiceName(t *testing.T) {
	if ServiceName != "ambient.assistant.v1.Assistant" {
		t.Errorf("expected ambient.assistant.v1.Assistant, got %s", ServiceName)
	}
	svc := pb.File_assistant_proto.Services().ByName("Assistant")
	if svc == nil {
		t.Fatal("expected Assistant service in descriptor")
	}
	if n := svc.Methods().Len(); n != 6 {
		t.Errorf("expected 6 methods, got %d", n)
	}
	if !svc.Methods().ByName("Watch").IsStreamingServer() {
		t.Error("expected Watch to stream from the server")
	}
	if !svc.Methods().ByName("Speak").IsStreamingClient() {
		t.Error("expected Speak to stream from the client")
	}
}

func TestQueryConversion(t *testing.T) {
	in := models.UserQuery{Text: "What is a mutex?", Mode: models.ModeSuggester, ThreadID: "cli", Voice: true}

	b, err := proto.Marshal(queryToProto(in))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var req pb.AskRequest
	if err := proto.Unmarshal(b, &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := queryFromProto(&req); got != in {
		t.Errorf("expected %+v, got %+v", in, got)
	}
}

func TestAnswerConversion(t *testing.T) {
	a := models.Answer{
		TurnID: "t1", Text: "Use a lock.", BackendUsed: "ollama", LatencyMs: 840,
		Truncated: true, RequestID: "r1", ThreadID: "0:0", Question: "What is a mutex?",
	}
	if got := answerFromProto(answerToProto(a)); *got != a {
		t.Errorf("expected %+v, got %+v", a, *got)
	}

	p := models.AnswerPartial{TurnID: "t1", RequestID: "r1", ThreadID: "0:0", BackendUsed: "ollama", Text: "Use", Delta: "Use", Attempt: 2}
	if got := partialFromProto(partialToProto(p)); *got != p {
		t.Errorf("expected %+v, got %+v", p, *got)
	}

	if answerFromProto(nil) != nil || partialFromProto(nil) != nil {
		t.Error("expected nil for absent messages")
	}
}

func TestStatusConversion(t *testing.T) {
	st := models.PipelineStatus{Paused: true, PauseReasons: []string{"user", "sensitive_app"}, ActiveBackend: "demo", InFlightRequestID: "0:0-3"}
	got := statusFromProto(statusToProto(st))
	if got.Paused != st.Paused || got.ActiveBackend != st.ActiveBackend || got.InFlightRequestID != st.InFlightRequestID {
		t.Errorf("expected %+v, got %+v", st, got)
	}
	if len(got.PauseReasons) != 2 || got.PauseReasons[1] != "sensitive_app" {
		t.Errorf("expected pause reasons preserved, got %v", got.PauseReasons)
	}
}
