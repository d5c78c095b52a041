// Package polly synthesizes commentary audio through Amazon Polly and
// serves the result as local MP3 files.
package polly

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/smithy-go"

	"github.com/thunderavi/scoreboard/internal/commentary"
)

// wordsPerMinute drives the duration estimate attached to commentary.
const wordsPerMinute = 150

type synthClient interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// Config configures the synthesizer.
type Config struct {
	Region   string
	VoiceID  string
	Engine   string
	AudioDir string
	// URLPrefix is the public path under which AudioDir is served.
	URLPrefix string
	Timeout   time.Duration
}

// Synthesizer renders text to MP3 files in the audio directory.
type Synthesizer struct {
	mu     sync.Mutex
	client synthClient
	cfg    Config
}

// New constructs a Synthesizer with lazily resolved AWS credentials.
func New(cfg Config) (*Synthesizer, error) {
	return NewWithClient(cfg, nil)
}

// NewWithClient constructs a Synthesizer around an injected client, for
// tests.
func NewWithClient(cfg Config, client synthClient) (*Synthesizer, error) {
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}
	if strings.TrimSpace(cfg.VoiceID) == "" {
		cfg.VoiceID = "Joanna"
	}
	if strings.TrimSpace(cfg.Engine) == "" {
		cfg.Engine = "neural"
	}
	if strings.TrimSpace(cfg.AudioDir) == "" {
		cfg.AudioDir = "audio"
	}
	if strings.TrimSpace(cfg.URLPrefix) == "" {
		cfg.URLPrefix = "/audio"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if err := os.MkdirAll(cfg.AudioDir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &Synthesizer{client: client, cfg: cfg}, nil
}

// Synthesize renders text into <audioDir>/<id>.mp3 and returns its
// public URL and estimated duration.
func (s *Synthesizer) Synthesize(ctx context.Context, id, text string) (commentary.Clip, error) {
	if id == "" {
		return commentary.Clip{}, fmt.Errorf("clip id is required")
	}
	if strings.TrimSpace(text) == "" {
		return commentary.Clip{}, fmt.Errorf("text is required")
	}
	client, err := s.resolveClient()
	if err != nil {
		return commentary.Clip{}, err
	}

	engine := pollytypes.EngineStandard
	if strings.EqualFold(s.cfg.Engine, "neural") {
		engine = pollytypes.EngineNeural
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	output, err := client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Engine:       engine,
		OutputFormat: pollytypes.OutputFormatMp3,
		Text:         &text,
		TextType:     pollytypes.TextTypeText,
		VoiceId:      pollytypes.VoiceId(s.cfg.VoiceID),
	})
	if err != nil {
		return commentary.Clip{}, normalizeError(err)
	}
	if output == nil || output.AudioStream == nil {
		return commentary.Clip{}, fmt.Errorf("empty audio stream")
	}
	defer output.AudioStream.Close()

	path := filepath.Join(s.cfg.AudioDir, id+".mp3")
	f, err := os.Create(path)
	if err != nil {
		return commentary.Clip{}, fmt.Errorf("create audio file: %w", err)
	}
	if _, err := io.Copy(f, output.AudioStream); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return commentary.Clip{}, fmt.Errorf("write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		return commentary.Clip{}, fmt.Errorf("close audio file: %w", err)
	}

	return commentary.Clip{
		URL:      s.cfg.URLPrefix + "/" + id + ".mp3",
		Duration: EstimateDuration(text),
	}, nil
}

// AudioDir reports where clips land, for the static file handler.
func (s *Synthesizer) AudioDir() string {
	return s.cfg.AudioDir
}

// EstimateDuration approximates playback seconds at a typical speaking
// rate, rounded to one decimal.
func EstimateDuration(text string) float64 {
	words := len(strings.Fields(text))
	seconds := float64(words) / wordsPerMinute * 60
	return float64(int(seconds*10+0.5)) / 10
}

func normalizeError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("synthesize speech: %w", err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("synthesize speech: %s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Errorf("synthesize speech: %w", err)
}

func (s *Synthesizer) resolveClient() (synthClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(s.cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	s.client = polly.NewFromConfig(awsCfg)
	return s.client, nil
}
