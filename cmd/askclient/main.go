package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	grpcapi "ambient-assistant/internal/api/grpc"
	"ambient-assistant/internal/models"
	pb "ambient-assistant/proto"
)

var (
	partialColor = color.New(color.FgYellow)
	finalColor   = color.New(color.FgGreen, color.Bold)
	infoColor    = color.New(color.FgCyan)
	errColor     = color.New(color.FgRed, color.Bold)
)

func main() {
	serverAddr := flag.String("server", "localhost:50051", "gRPC server address")
	thread := flag.String("thread", "cli", "Thread ID for the question")
	mode := flag.String("mode", "normal", "Answer mode: normal, suggester or solver")
	timeout := flag.Duration("timeout", 90*time.Second, "How long to wait for the answer")
	status := flag.Bool("status", false, "Print the pipeline status and exit")
	pause := flag.Bool("pause", false, "Pause the pipeline and exit")
	resume := flag.Bool("resume", false, "Resume the pipeline and exit")
	feedback := flag.String("feedback", "", "Rate a turn as turnId:positive or turnId:negative and exit")
	flag.Parse()

	client, err := grpcapi.Dial(*serverAddr)
	if err != nil {
		fail("failed to connect: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch {
	case *status:
		printStatus(ctx, client)
		return
	case *pause || *resume:
		if err := client.Pause(ctx, *pause); err != nil {
			fail("pause failed: %v", err)
		}
		infoColor.Printf("paused=%v\n", *pause)
		return
	case *feedback != "":
		sendFeedback(ctx, client, *feedback)
		return
	}

	question := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if question == "" {
		fail("usage: askclient [flags] <question>")
	}
	ask(ctx, client, models.UserQuery{Text: question, Mode: models.ParseMode(*mode), ThreadID: *thread})
}

func ask(ctx context.Context, client *grpcapi.Client, q models.UserQuery) {
	watch, err := client.Watch(ctx, &pb.WatchRequest{ThreadId: q.ThreadID, Partials: true})
	if err != nil {
		fail("failed to watch answers: %v", err)
	}

	resp, err := client.Ask(ctx, q)
	if err != nil {
		fail("ask failed: %v", err)
	}
	if !resp.GetAccepted() {
		fail("question was not accepted")
	}
	infoColor.Printf("? %s\n", q.Text)

	// Retries restart the cumulative text, so track what is already shown.
	shown := ""
	for {
		ev, err := watch.Recv()
		if err != nil {
			fail("answer stream ended: %v", err)
		}
		switch ev.Type {
		case grpcapi.EventPartial:
			if ev.Partial == nil {
				continue
			}
			if !strings.HasPrefix(ev.Partial.Text, shown) {
				fmt.Println()
				shown = ""
			}
			partialColor.Print(strings.TrimPrefix(ev.Partial.Text, shown))
			shown = ev.Partial.Text
		case grpcapi.EventFinal:
			if ev.Final == nil {
				continue
			}
			if shown != "" {
				fmt.Println()
			}
			finalColor.Println(ev.Final.Text)
			infoColor.Printf("turn=%s backend=%s latency=%dms truncated=%v\n",
				ev.Final.TurnID, ev.Final.BackendUsed, ev.Final.LatencyMs, ev.Final.Truncated)
			return
		}
	}
}

func printStatus(ctx context.Context, client *grpcapi.Client) {
	st, err := client.Status(ctx)
	if err != nil {
		fail("status failed: %v", err)
	}
	infoColor.Printf("paused=%v reasons=%v backend=%s inflight=%s\n",
		st.Paused, st.PauseReasons, st.ActiveBackend, st.InFlightRequestID)
}

func sendFeedback(ctx context.Context, client *grpcapi.Client, arg string) {
	turnID, raw, ok := strings.Cut(arg, ":")
	if !ok {
		fail("feedback must be turnId:sentiment")
	}
	sentiment, err := models.ParseSentiment(raw)
	if err != nil {
		fail("%v", err)
	}
	if err := client.Feedback(ctx, models.UserFeedback{TurnID: turnID, Sentiment: sentiment}); err != nil {
		fail("feedback failed: %v", err)
	}
	infoColor.Printf("recorded %s for %s\n", sentiment, turnID)
}

func fail(format string, args ...any) {
	errColor.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
