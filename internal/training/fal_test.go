package training

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/modelcreator/internal/common"
	"github.com/dmitrijs2005/modelcreator/internal/logging"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBase     = "https://queue.fal.test"
	testEndpoint = "fal-ai/flux-lora-fast-training"
	testStatus   = testBase + "/fal-ai/flux-lora-fast-training/requests/req-1/status"
	testResponse = testBase + "/fal-ai/flux-lora-fast-training/requests/req-1"
)

func newMockedQueue(t *testing.T) *FalQueue {
	t.Helper()
	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return NewFalQueue(testBase+"/", "secret", client, logging.Nop())
}

func registerSubmit(t *testing.T) {
	t.Helper()
	httpmock.RegisterResponder(http.MethodPost, testBase+"/"+testEndpoint,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Key secret", req.Header.Get("Authorization"))
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

			body, _ := io.ReadAll(req.Body)
			var in Input
			require.NoError(t, json.Unmarshal(body, &in))
			assert.Equal(t, "https://s3/b/a.zip", in.ImagesDataURL)
			assert.Equal(t, 100, in.Steps)

			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
				"request_id":   "req-1",
				"status_url":   testStatus,
				"response_url": testResponse,
			})
		})
}

func TestFalQueue_SubmitStatusResult(t *testing.T) {
	q := newMockedQueue(t)
	registerSubmit(t)

	// the queue reports the whole log on every poll
	polls := []map[string]any{
		{"status": "IN_QUEUE", "queue_position": 1},
		{"status": "IN_PROGRESS", "logs": []map[string]any{{"message": "a"}}},
		{"status": "IN_PROGRESS", "logs": []map[string]any{{"message": "a"}, {"message": "b"}, {"message": "c"}}},
		{"status": "COMPLETED", "logs": []map[string]any{{"message": "a"}, {"message": "b"}, {"message": "c"}}},
	}
	n := 0
	httpmock.RegisterResponder(http.MethodGet, testStatus+"?logs=1",
		func(req *http.Request) (*http.Response, error) {
			p := polls[n]
			if n < len(polls)-1 {
				n++
			}
			return httpmock.NewJsonResponse(http.StatusAccepted, p)
		})
	httpmock.RegisterResponder(http.MethodGet, testResponse,
		httpmock.NewStringResponder(http.StatusOK, `{"diffusers_lora_file":{"url":"https://cdn/lora.safetensors"},"config_file":{"url":"https://cdn/config.json"}}`))

	ctx := context.Background()
	h, err := q.Submit(ctx, testEndpoint, Input{ImagesDataURL: "https://s3/b/a.zip", Steps: 100})
	require.NoError(t, err)
	assert.Equal(t, "req-1", h.RequestID)

	var batches [][]string
	for {
		st, err := q.Status(ctx, testEndpoint, h)
		require.NoError(t, err)
		if st.Status == StatusInProgress {
			batches = append(batches, st.Logs)
		}
		if st.Status == StatusCompleted {
			break
		}
	}
	assert.Equal(t, [][]string{{"a"}, {"b", "c"}}, batches)

	out, err := q.Result(ctx, testEndpoint, h)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/lora.safetensors", out.WeightsURL)
	assert.Equal(t, "https://cdn/config.json", out.ConfigURL)
	assert.JSONEq(t, `{"diffusers_lora_file":{"url":"https://cdn/lora.safetensors"},"config_file":{"url":"https://cdn/config.json"}}`, string(out.Raw))
}

func TestFalQueue_WithInvoker(t *testing.T) {
	q := newMockedQueue(t)
	registerSubmit(t)

	polls := []string{
		`{"status":"IN_PROGRESS","logs":[{"message":"a"}]}`,
		`{"status":"IN_PROGRESS","logs":[{"message":"a"},{"message":"b"},{"message":"c"}]}`,
		`{"status":"COMPLETED","logs":[{"message":"a"},{"message":"b"},{"message":"c"}]}`,
	}
	n := 0
	httpmock.RegisterResponder(http.MethodGet, testStatus+"?logs=1",
		func(req *http.Request) (*http.Response, error) {
			p := polls[n]
			if n < len(polls)-1 {
				n++
			}
			return httpmock.NewStringResponse(http.StatusOK, p), nil
		})
	httpmock.RegisterResponder(http.MethodGet, testResponse, httpmock.NewStringResponder(http.StatusOK, `{}`))

	inv := NewInvoker(q, Options{Endpoint: testEndpoint, Steps: 100, PollInterval: time.Millisecond}, logging.Nop())
	res, err := inv.SubmitTraining(context.Background(), "https://s3/b/a.zip")
	require.NoError(t, err)

	assert.Equal(t, "req-1", res.JobID)
	assert.Equal(t, []string{"a", "b", "c"}, res.Logs)
	assert.Equal(t, 1, httpmock.GetCallCountInfo()["POST "+testBase+"/"+testEndpoint])
}

func TestFalQueue_WithInvoker_TailOnCompletedPoll(t *testing.T) {
	q := newMockedQueue(t)
	registerSubmit(t)

	polls := []string{
		`{"status":"IN_PROGRESS","logs":[{"message":"a"}]}`,
		`{"status":"COMPLETED","logs":[{"message":"a"},{"message":"b"},{"message":"c"}]}`,
	}
	n := 0
	httpmock.RegisterResponder(http.MethodGet, testStatus+"?logs=1",
		func(req *http.Request) (*http.Response, error) {
			p := polls[n]
			if n < len(polls)-1 {
				n++
			}
			return httpmock.NewStringResponse(http.StatusOK, p), nil
		})
	httpmock.RegisterResponder(http.MethodGet, testResponse, httpmock.NewStringResponder(http.StatusOK, `{}`))

	inv := NewInvoker(q, Options{Endpoint: testEndpoint, Steps: 100, PollInterval: time.Millisecond}, logging.Nop())
	res, err := inv.SubmitTraining(context.Background(), "https://s3/b/a.zip")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, res.Logs)
}

func TestFalQueue_SubmitError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"detail string", http.StatusUnauthorized, `{"detail":"Invalid key"}`, "Invalid key"},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"},{"msg":"bad url"}]}`, "field required; bad url"},
		{"message field", http.StatusBadRequest, `{"message":"nope"}`, "nope"},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, "Bad Gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newMockedQueue(t)
			httpmock.RegisterResponder(http.MethodPost, testBase+"/"+testEndpoint, httpmock.NewStringResponder(tt.status, tt.body))

			_, err := q.Submit(context.Background(), testEndpoint, Input{})
			var te *common.TrainingError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tt.status, te.StatusCode)
			assert.Equal(t, tt.wantMsg, te.Message)
			assert.Equal(t, tt.body, string(te.Response))
		})
	}
}

func TestFalQueue_SubmitFallbackURLs(t *testing.T) {
	q := newMockedQueue(t)
	httpmock.RegisterResponder(http.MethodPost, testBase+"/fal-ai/flux-lora-fast-training/v2",
		httpmock.NewStringResponder(http.StatusOK, `{"request_id":"r9"}`))

	h, err := q.Submit(context.Background(), "fal-ai/flux-lora-fast-training/v2", Input{})
	require.NoError(t, err)
	assert.Equal(t, testBase+"/fal-ai/flux-lora-fast-training/requests/r9/status", h.StatusURL)
	assert.Equal(t, testBase+"/fal-ai/flux-lora-fast-training/requests/r9", h.ResponseURL)
}

func TestFalQueue_SubmitWithoutRequestID(t *testing.T) {
	q := newMockedQueue(t)
	httpmock.RegisterResponder(http.MethodPost, testBase+"/"+testEndpoint, httpmock.NewStringResponder(http.StatusOK, `{}`))

	_, err := q.Submit(context.Background(), testEndpoint, Input{})
	assert.True(t, errors.Is(err, common.ErrTraining))
}

func TestFalQueue_StatusFailure(t *testing.T) {
	q := newMockedQueue(t)
	httpmock.RegisterResponder(http.MethodGet, testStatus+"?logs=1",
		httpmock.NewStringResponder(http.StatusOK, `{"status":"ERROR","error":"out of memory"}`))

	_, err := q.Status(context.Background(), testEndpoint, &Handle{RequestID: "req-1", StatusURL: testStatus})
	var te *common.TrainingError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "out of memory", te.Message)
}

func TestFalQueue_TransportError(t *testing.T) {
	q := newMockedQueue(t)
	httpmock.RegisterResponder(http.MethodGet, testResponse, httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := q.Result(context.Background(), testEndpoint, &Handle{ResponseURL: testResponse})
	var te *common.TrainingError
	require.True(t, errors.As(err, &te))
	assert.Zero(t, te.StatusCode)
	assert.Contains(t, te.Message, "connection refused")
}

func TestAppID(t *testing.T) {
	assert.Equal(t, "fal-ai/flux-lora-fast-training", appID("fal-ai/flux-lora-fast-training"))
	assert.Equal(t, "fal-ai/app", appID("/fal-ai/app/sub/path/"))
	assert.Equal(t, "single", appID("single"))
}
