package main

import (
	"context"
	"encoding/binary"
	"flag"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	grpcapi "ambient-assistant/internal/api/grpc"
	pb "ambient-assistant/proto"
)

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

// At 16kHz 16-bit mono = 32000 bytes/second, 100ms chunks = 3200 bytes
const chunkSize = 3200
const chunkIntervalMs = 100

var (
	infoColor = color.New(color.FgCyan)
	okColor   = color.New(color.FgGreen, color.Bold)
	errColor  = color.New(color.FgRed, color.Bold)
)

func main() {
	audioFile := flag.String("audio", "testdata/question-16khz.wav", "Path to WAV file (16kHz 16-bit mono)")
	serverAddr := flag.String("server", "localhost:50051", "gRPC server address")
	thread := flag.String("thread", "voice-"+time.Now().Format("150405"), "Thread ID for spoken questions")
	flag.Parse()

	f, err := os.Open(*audioFile)
	if err != nil {
		fatalf("Failed to open audio file: %v", err)
	}
	defer f.Close()

	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		fatalf("Failed to read WAV header: %v", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		fatalf("Not a valid WAV file")
	}

	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	numChannels := binary.LittleEndian.Uint16(header[22:24])
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	bitsPerSample := binary.LittleEndian.Uint16(header[34:36])
	infoColor.Printf("WAV file: format=%d channels=%d sampleRate=%d bitsPerSample=%d\n",
		audioFormat, numChannels, sampleRate, bitsPerSample)

	if audioFormat != 1 { // PCM
		fatalf("Only PCM format supported")
	}
	if sampleRate != 16000 {
		color.Yellow("Warning: sample rate is %d Hz, the recognizer expects 16000 Hz", sampleRate)
	}

	client, err := grpcapi.Dial(*serverAddr)
	if err != nil {
		fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	stream, err := client.Speak(ctx)
	if err != nil {
		fatalf("Failed to open speak stream: %v", err)
	}
	infoColor.Printf("Speaking to %s on thread %s\n", *serverAddr, *thread)

	buf := make([]byte, chunkSize)
	var totalBytes int64
	var chunkNum int
	startTime := time.Now()

	for {
		n, err := f.Read(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			fatalf("Failed to read audio: %v", err)
		}

		chunkNum++
		totalBytes += int64(n)
		if err := stream.Send(&pb.AudioChunk{ThreadId: *thread, Audio: buf[:n]}); err != nil {
			fatalf("Failed to send chunk: %v", err)
		}
		if chunkNum%10 == 0 {
			infoColor.Printf("Sent chunk %d (%d bytes total)\n", chunkNum, totalBytes)
		}

		// Simulate real-time streaming
		time.Sleep(chunkIntervalMs * time.Millisecond)
	}

	infoColor.Printf("Finished streaming: %d chunks, %d bytes in %v\n", chunkNum, totalBytes, time.Since(startTime))

	resp, err := stream.CloseAndRecv()
	if err != nil {
		fatalf("Failed to receive response: %v", err)
	}
	okColor.Printf("Spoken questions asked: %d (watch thread %s for answers)\n", resp.GetAsked(), *thread)
}

func fatalf(format string, args ...any) {
	errColor.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
