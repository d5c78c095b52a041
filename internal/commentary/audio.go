package commentary

import "context"

// Clip locates one synthesized commentary clip.
type Clip struct {
	// URL is the public path of the rendered audio.
	URL string
	// Duration is the estimated playback length in seconds.
	Duration float64
}

// AudioSynthesizer renders commentary text to audio. Synthesis is
// optional; failures degrade the feed to text-only.
type AudioSynthesizer interface {
	Synthesize(ctx context.Context, clipID, text string) (Clip, error)
}
