package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"nhooyr.io/websocket"

	"voxrec/encoder"
)

const deepgramStreamURL = "wss://api.deepgram.com/v1/listen"

type deepgramStreamResponse struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

type deepgramStream struct {
	conn *websocket.Conn
}

// OpenStream dials the live endpoint. PCM parameters are fixed by the
// capture side: 16-bit linear, 16kHz, mono.
func (d *Deepgram) OpenStream(ctx context.Context) (Stream, error) {
	endpoint, err := url.Parse(deepgramStreamURL)
	if err != nil {
		return nil, err
	}

	q := endpoint.Query()
	q.Set("encoding", "linear16")
	q.Set("sample_rate", fmt.Sprintf("%d", encoder.SampleRate))
	q.Set("channels", fmt.Sprintf("%d", encoder.Channels))
	if d.language != "" {
		q.Set("language", d.language)
	}
	endpoint.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("Authorization", "Token "+d.apiKey)

	conn, _, err := websocket.Dial(ctx, endpoint.String(), &websocket.DialOptions{HTTPHeader: headers})
	if err != nil {
		return nil, err
	}

	return &deepgramStream{conn: conn}, nil
}

func (s *deepgramStream) Send(ctx context.Context, chunk []byte) error {
	return s.conn.Write(ctx, websocket.MessageBinary, chunk)
}

func (s *deepgramStream) Recv(ctx context.Context) (Update, error) {
	_, data, err := s.conn.Read(ctx)
	if err != nil {
		return Update{}, err
	}
	return parseStreamMessage(data)
}

func (s *deepgramStream) Close() error {
	// Best effort: tell the service we are done before dropping the socket.
	msg := []byte(`{"type":"CloseStream"}`)
	_ = s.conn.Write(context.Background(), websocket.MessageText, msg)
	return s.conn.Close(websocket.StatusNormalClosure, "")
}

func parseStreamMessage(data []byte) (Update, error) {
	var resp deepgramStreamResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return Update{}, err
	}

	transcript := ""
	if len(resp.Channel.Alternatives) > 0 {
		transcript = resp.Channel.Alternatives[0].Transcript
	}

	return Update{
		Transcript: strings.TrimSpace(transcript),
		IsFinal:    resp.IsFinal,
	}, nil
}
