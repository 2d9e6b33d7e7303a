package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"civil-quiz/internal/domain"
)

// ScoreClient posts results to the score-logging endpoint. The response is
// drained unread and its status ignored: the endpoint gives no usable
// acknowledgement, so a nil error means "sent", not "stored".
type ScoreClient struct {
	http     *http.Client
	endpoint string
}

func NewScoreClient(client *http.Client, endpoint string) *ScoreClient {
	return &ScoreClient{http: client, endpoint: endpoint}
}

func (c *ScoreClient) Submit(ctx context.Context, record domain.ResultRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return &domain.NetworkError{Op: "submit score", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.NetworkError{Op: "submit score", Err: err}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}
