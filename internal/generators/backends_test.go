package generators

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hakawati/server/internal/config"
	"hakawati/server/internal/interfaces"
)

func TestOpenAIImageBackend(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"created": 1,
			"data":    []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString([]byte("pixels"))}},
		})
	}))
	defer srv.Close()

	b := NewOpenAIImageBackend(config.ImageConfig{BaseURL: srv.URL + "/v1", APIKey: "k", Model: "dall-e-3", Timeout: 5 * time.Second}, nil)
	img, err := b.RenderImage(context.Background(), &interfaces.ImageRequest{Prompt: "p", AspectRatio: "9:16"})
	require.NoError(t, err)

	assert.Equal(t, "pixels", string(img.Bytes))
	assert.Equal(t, "1024x1792", got["size"])
	assert.Equal(t, "b64_json", got["response_format"])
}

func TestOpenAIImageSizes(t *testing.T) {
	dalle := &OpenAIImageBackend{model: "dall-e-3"}
	assert.Equal(t, "1792x1024", dalle.size("16:9"))
	assert.Equal(t, "1024x1024", dalle.size("1:1"))
	assert.Equal(t, "1024x1792", dalle.size("3:4"))

	gpt := &OpenAIImageBackend{model: "gpt-image-1"}
	assert.Equal(t, "1536x1024", gpt.size("16:9"))
	assert.Equal(t, "1024x1536", gpt.size("3:4"))
}

func TestComfyUIBackend(t *testing.T) {
	var polls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/prompt", func(w http.ResponseWriter, r *http.Request) {
		var req promptRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		assert.Equal(t, "KSampler", req.Prompt["3"].ClassType)
		assert.Equal(t, "sdxl.safetensors", req.Prompt["4"].Inputs["ckpt_name"])
		assert.EqualValues(t, 896, req.Prompt["5"].Inputs["width"])
		_, _ = w.Write([]byte(`{"prompt_id":"abc-123","number":1,"node_errors":{}}`))
	})
	mux.HandleFunc("/history/abc-123", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&polls, 1) < 2 {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		_, _ = w.Write([]byte(`{"abc-123":{"status":{"status_str":"success","completed":true},"outputs":{"9":{"images":[{"filename":"out.png","subfolder":"","type":"output"}]}}}}`))
	})
	mux.HandleFunc("/view", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "out.png", r.URL.Query().Get("filename"))
		_, _ = w.Write([]byte("comfy-png"))
	})
	mux.HandleFunc("/queue", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"queue_running":[],"queue_pending":[]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	b := NewComfyUIBackend(config.ImageConfig{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
		ComfyUI: config.ComfyUIConfig{Checkpoint: "sdxl.safetensors", PollInterval: 5 * time.Millisecond},
	}, nil)

	require.NoError(t, b.HealthCheck(context.Background()))
	img, err := b.RenderImage(context.Background(), &interfaces.ImageRequest{Prompt: "p", AspectRatio: "3:4"})
	require.NoError(t, err)
	assert.Equal(t, "comfy-png", string(img.Bytes))
}

func TestComfyUIBackendReportsFailedPrompt(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/prompt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prompt_id":"p1"}`))
	})
	mux.HandleFunc("/history/p1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"p1":{"status":{"status_str":"error","completed":false},"outputs":{}}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	b := NewComfyUIBackend(config.ImageConfig{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
		ComfyUI: config.ComfyUIConfig{PollInterval: 5 * time.Millisecond},
	}, nil)

	_, err := b.RenderImage(context.Background(), &interfaces.ImageRequest{Prompt: "p"})
	assert.Error(t, err)
}
