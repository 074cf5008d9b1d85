package training

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/modelcreator/internal/common"
	"github.com/dmitrijs2005/modelcreator/internal/logging"
)

// FalQueue talks to the fal.ai queue REST API.
type FalQueue struct {
	baseURL string
	key     string
	client  *http.Client
	logger  logging.Logger
}

// NewFalQueue returns a queue client for baseURL (e.g. https://queue.fal.run)
// authenticating with key. A nil client means http.DefaultClient.
func NewFalQueue(baseURL, key string, client *http.Client, logger logging.Logger) *FalQueue {
	if client == nil {
		client = http.DefaultClient
	}
	return &FalQueue{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		client:  client,
		logger:  logger,
	}
}

type falSubmitResponse struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
	CancelURL   string `json:"cancel_url"`
}

type falLog struct {
	Message   string `json:"message"`
	Level     string `json:"level"`
	Timestamp string `json:"timestamp"`
}

type falStatusResponse struct {
	Status        string   `json:"status"`
	QueuePosition int      `json:"queue_position"`
	Logs          []falLog `json:"logs"`
	Error         string   `json:"error"`
}

type falFile struct {
	URL string `json:"url"`
}

type falTrainingOutput struct {
	DiffusersLoraFile falFile `json:"diffusers_lora_file"`
	ConfigFile        falFile `json:"config_file"`
}

func (q *FalQueue) Submit(ctx context.Context, endpoint string, input Input) (*Handle, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}

	var resp falSubmitResponse
	if err := q.do(ctx, http.MethodPost, q.baseURL+"/"+strings.Trim(endpoint, "/"), body, &resp); err != nil {
		return nil, err
	}
	if resp.RequestID == "" {
		return nil, &common.TrainingError{Message: "queue returned no request id"}
	}

	h := &Handle{
		RequestID:   resp.RequestID,
		StatusURL:   resp.StatusURL,
		ResponseURL: resp.ResponseURL,
		CancelURL:   resp.CancelURL,
	}
	if h.StatusURL == "" {
		h.StatusURL = q.requestURL(endpoint, h.RequestID) + "/status"
	}
	if h.ResponseURL == "" {
		h.ResponseURL = q.requestURL(endpoint, h.RequestID)
	}
	return h, nil
}

// Status polls the request. The queue returns every log line produced so
// far on each poll; only the unseen tail is handed back.
func (q *FalQueue) Status(ctx context.Context, endpoint string, h *Handle) (*StatusUpdate, error) {
	u, err := url.Parse(h.StatusURL)
	if err != nil {
		return nil, fmt.Errorf("status url: %w", err)
	}
	qs := u.Query()
	qs.Set("logs", "1")
	u.RawQuery = qs.Encode()

	var resp falStatusResponse
	if err := q.do(ctx, http.MethodGet, u.String(), nil, &resp); err != nil {
		return nil, err
	}

	switch resp.Status {
	case StatusInQueue, StatusInProgress, StatusCompleted:
	default:
		msg := resp.Error
		if msg == "" {
			msg = "unexpected queue status " + resp.Status
		}
		return nil, &common.TrainingError{Message: msg}
	}

	if len(resp.Logs) < h.logsSeen {
		h.logsSeen = 0
	}
	fresh := resp.Logs[h.logsSeen:]
	h.logsSeen = len(resp.Logs)

	st := &StatusUpdate{Status: resp.Status, QueuePosition: resp.QueuePosition}
	for _, l := range fresh {
		st.Logs = append(st.Logs, l.Message)
	}
	return st, nil
}

func (q *FalQueue) Result(ctx context.Context, endpoint string, h *Handle) (*Output, error) {
	var raw json.RawMessage
	if err := q.do(ctx, http.MethodGet, h.ResponseURL, nil, &raw); err != nil {
		return nil, err
	}

	var out falTrainingOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &common.TrainingError{Message: "malformed result: " + err.Error(), Response: raw, Err: err}
	}

	return &Output{
		WeightsURL: out.DiffusersLoraFile.URL,
		ConfigURL:  out.ConfigFile.URL,
		Raw:        raw,
	}, nil
}

func (q *FalQueue) requestURL(endpoint, requestID string) string {
	return q.baseURL + "/" + appID(endpoint) + "/requests/" + requestID
}

// appID strips any sub-path from an endpoint id: status and result
// routes live under owner/app only.
func appID(endpoint string) string {
	parts := strings.Split(strings.Trim(endpoint, "/"), "/")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, "/")
}

func (q *FalQueue) do(ctx context.Context, method, target string, body []byte, out any) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Key "+q.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return &common.TrainingError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &common.TrainingError{StatusCode: resp.StatusCode, Message: err.Error(), Err: err}
	}

	q.logger.Debug(ctx, "queue response", "method", method, "url", target, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &common.TrainingError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, payload),
			Response:   json.RawMessage(payload),
		}
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return &common.TrainingError{StatusCode: resp.StatusCode, Message: "malformed response: " + err.Error(), Response: payload, Err: err}
	}
	return nil
}

// errorMessage pulls a human readable message out of an error body.
// The queue uses {"detail": "..."}, validation failures a list of
// {"msg": "..."} objects.
func errorMessage(status int, payload []byte) string {
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		var detail string
		if json.Unmarshal(body.Detail, &detail) == nil && detail != "" {
			return detail
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(body.Detail, &items) == nil && len(items) > 0 {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				msgs = append(msgs, it.Msg)
			}
			return strings.Join(msgs, "; ")
		}
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return http.StatusText(status)
}
