package polly

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pollysdk "github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/smithy-go"
)

type fakePollyClient struct {
	out *pollysdk.SynthesizeSpeechOutput
	err error

	lastInput *pollysdk.SynthesizeSpeechInput
}

func (f *fakePollyClient) SynthesizeSpeech(ctx context.Context, params *pollysdk.SynthesizeSpeechInput, optFns ...func(*pollysdk.Options)) (*pollysdk.SynthesizeSpeechOutput, error) {
	f.lastInput = params
	return f.out, f.err
}

type fakeAPIError struct {
	code string
	msg  string
}

func (e fakeAPIError) Error() string                 { return e.code + ": " + e.msg }
func (e fakeAPIError) ErrorCode() string             { return e.code }
func (e fakeAPIError) ErrorMessage() string          { return e.msg }
func (e fakeAPIError) ErrorFault() smithy.ErrorFault { return smithy.FaultServer }

func audioStream(payload string) io.ReadCloser {
	return io.NopCloser(bytes.NewReader([]byte(payload)))
}

func TestSynthesizeWritesClip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	client := &fakePollyClient{
		out: &pollysdk.SynthesizeSpeechOutput{AudioStream: audioStream("mp3-bytes")},
	}
	s, err := NewWithClient(Config{AudioDir: dir}, client)
	if err != nil {
		t.Fatalf("new synthesizer: %v", err)
	}

	clip, err := s.Synthesize(context.Background(), "clip-1", "What a shot that was from Kohli")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if clip.URL != "/audio/clip-1.mp3" {
		t.Fatalf("clip url %q", clip.URL)
	}
	// 7 words at 150 wpm is 2.8 seconds.
	if clip.Duration != 2.8 {
		t.Fatalf("duration %v, want 2.8", clip.Duration)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "clip-1.mp3"))
	if err != nil {
		t.Fatalf("read clip file: %v", err)
	}
	if string(raw) != "mp3-bytes" {
		t.Fatalf("clip payload %q", raw)
	}
	if client.lastInput == nil || *client.lastInput.Text != "What a shot that was from Kohli" {
		t.Fatalf("synth input wrong: %+v", client.lastInput)
	}
}

func TestSynthesizeValidation(t *testing.T) {
	t.Parallel()

	s, err := NewWithClient(Config{AudioDir: t.TempDir()}, &fakePollyClient{})
	if err != nil {
		t.Fatalf("new synthesizer: %v", err)
	}
	if _, err := s.Synthesize(context.Background(), "", "text"); err == nil {
		t.Fatalf("empty id must be rejected")
	}
	if _, err := s.Synthesize(context.Background(), "clip-1", "  "); err == nil {
		t.Fatalf("empty text must be rejected")
	}
}

func TestSynthesizeErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		contain string
	}{
		{name: "timeout", err: context.DeadlineExceeded, contain: "deadline"},
		{name: "api error", err: fakeAPIError{code: "TooManyRequestsException", msg: "rate"}, contain: "TooManyRequestsException"},
		{name: "transport", err: errors.New("tcp reset"), contain: "tcp reset"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, err := NewWithClient(Config{AudioDir: t.TempDir()}, &fakePollyClient{err: tc.err})
			if err != nil {
				t.Fatalf("new synthesizer: %v", err)
			}
			_, err = s.Synthesize(context.Background(), "clip-1", "text")
			if err == nil || !strings.Contains(err.Error(), tc.contain) {
				t.Fatalf("error %v, want containing %q", err, tc.contain)
			}
		})
	}
}

func TestSynthesizeEmptyStream(t *testing.T) {
	t.Parallel()

	s, err := NewWithClient(Config{AudioDir: t.TempDir()}, &fakePollyClient{out: &pollysdk.SynthesizeSpeechOutput{}})
	if err != nil {
		t.Fatalf("new synthesizer: %v", err)
	}
	if _, err := s.Synthesize(context.Background(), "clip-1", "text"); err == nil {
		t.Fatalf("empty stream must be rejected")
	}
}

func TestEstimateDuration(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want float64
	}{
		{"one two three four five", 2.0},
		{"word", 0.4},
		{"", 0},
	}
	for _, tc := range cases {
		if got := EstimateDuration(tc.text); got != tc.want {
			t.Fatalf("EstimateDuration(%q)=%v, want %v", tc.text, got, tc.want)
		}
	}
}
