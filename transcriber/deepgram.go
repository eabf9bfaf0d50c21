package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
)

const (
	deepgramBatchURL = "https://api.deepgram.com/v1/listen"
	deepgramHost     = "https://api.deepgram.com"

	// Returned when the service answers OK but without a transcript path.
	TranscriptUnavailable = "Transcription unavailable"
)

type Deepgram struct {
	apiKey   string
	language string
	apiURL   string
	client   *TracedClient
}

func NewDeepgram(apiKey, language string) *Deepgram {
	return &Deepgram{
		apiKey:   apiKey,
		language: language,
		apiURL:   deepgramBatchURL,
		client:   NewTracedClient(),
	}
}

func (d *Deepgram) Name() string { return "deepgram" }

// WarmConnection pre-establishes TLS so the first upload is not penalized.
func (d *Deepgram) WarmConnection() {
	d.client.WarmConnection(deepgramHost)
}

type deepgramResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
		Channels int     `json:"channels"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe uploads a complete recording as a multipart form and returns
// the final transcript. The form layout (field "audio", one file) matches
// what the service's prerecorded endpoint accepts.
func (d *Deepgram) Transcribe(ctx context.Context, audio []byte, contentType string) (*Result, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("audio", filenameFor(contentType))
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, err
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	url := d.apiURL
	if d.language != "" {
		url += "?language=" + d.language
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deepgram API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var dgResp deepgramResponse
	if err := json.Unmarshal(resp.Body, &dgResp); err != nil {
		return nil, fmt.Errorf("deepgram response parse error: %w", err)
	}

	text := TranscriptUnavailable
	var confidence float64
	if len(dgResp.Results.Channels) > 0 && len(dgResp.Results.Channels[0].Alternatives) > 0 {
		alt := dgResp.Results.Channels[0].Alternatives[0]
		if alt.Transcript != "" {
			text = alt.Transcript
		}
		confidence = alt.Confidence
	}

	remaining := firstNonEmpty(resp.Header,
		"x-dg-ratelimit-remaining", "x-ratelimit-remaining", "ratelimit-remaining")
	limit := firstNonEmpty(resp.Header,
		"x-dg-ratelimit-limit", "x-ratelimit-limit", "ratelimit-limit")

	return &Result{
		Text:       text,
		Confidence: confidence,
		Duration:   dgResp.Metadata.Duration,
		Metrics:    resp.Metrics,
		RateLimit:  remaining + "/" + limit,
	}, nil
}

func filenameFor(contentType string) string {
	switch contentType {
	case "audio/flac":
		return "recording.flac"
	case "audio/webm":
		return "recording.webm"
	default:
		return "recording.bin"
	}
}
