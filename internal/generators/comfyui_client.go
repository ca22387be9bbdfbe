package generators

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hakawati/server/internal/config"
	"hakawati/server/internal/interfaces"
	"hakawati/server/internal/models"
)

const (
	comfyDefaultBaseURL = "http://localhost:8188"
	comfyPollInterval   = 1 * time.Second
	comfyNegativePrompt = "text, watermark, signature, blurry, deformed hands, extra limbs, lowres"
)

// ComfyUIBackend renders images on a local ComfyUI instance.
type ComfyUIBackend struct {
	httpClient   *http.Client
	baseURL      string
	opts         config.ComfyUIConfig
	pollInterval time.Duration
	logger       *zap.Logger
}

// Workflow is a ComfyUI API-format graph keyed by node id.
type Workflow map[string]*WorkflowNode

// WorkflowNode represents a node in the workflow
type WorkflowNode struct {
	ClassType string         `json:"class_type"`
	Inputs    map[string]any `json:"inputs"`
}

type promptRequest struct {
	Prompt   Workflow `json:"prompt"`
	ClientID string   `json:"client_id"`
}

type promptResponse struct {
	PromptID   string         `json:"prompt_id"`
	NodeErrors map[string]any `json:"node_errors"`
}

type historyItem struct {
	Status struct {
		StatusStr string `json:"status_str"`
		Completed bool   `json:"completed"`
	} `json:"status"`
	Outputs map[string]struct {
		Images []imageInfo `json:"images"`
	} `json:"outputs"`
}

type imageInfo struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// NewComfyUIBackend creates a ComfyUI backend from the image config.
func NewComfyUIBackend(cfg config.ImageConfig, logger *zap.Logger) *ComfyUIBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = comfyDefaultBaseURL
	}
	poll := cfg.ComfyUI.PollInterval
	if poll == 0 {
		poll = comfyPollInterval
	}
	return &ComfyUIBackend{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		baseURL:      baseURL,
		opts:         cfg.ComfyUI,
		pollInterval: poll,
		logger:       logger,
	}
}

// RenderImage queues a workflow, waits for it to finish and downloads the
// first output image.
func (c *ComfyUIBackend) RenderImage(ctx context.Context, req *interfaces.ImageRequest) (*interfaces.ImageData, error) {
	workflow := c.buildWorkflow(req)

	promptID, err := c.queuePrompt(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("queue prompt: %w", err)
	}
	c.logger.Debug("comfyui prompt queued", zap.String("prompt_id", promptID))

	img, err := c.waitForImage(ctx, promptID)
	if err != nil {
		return nil, err
	}

	data, err := c.fetchImage(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	return &interfaces.ImageData{Bytes: data, MimeType: "image/png"}, nil
}

// HealthCheck checks if ComfyUI is accessible
func (c *ComfyUIBackend) HealthCheck(ctx context.Context) error {
	resp, err := c.get(ctx, c.baseURL+"/queue")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *ComfyUIBackend) queuePrompt(ctx context.Context, workflow Workflow) (string, error) {
	body, err := json.Marshal(&promptRequest{Prompt: workflow, ClientID: "hakawati-" + uuid.NewString()})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/prompt", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("comfyui returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var out promptResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", err
	}
	if out.PromptID == "" {
		return "", fmt.Errorf("invalid response: missing prompt_id")
	}
	if len(out.NodeErrors) > 0 {
		return "", fmt.Errorf("workflow rejected: %v", out.NodeErrors)
	}
	return out.PromptID, nil
}

func (c *ComfyUIBackend) waitForImage(ctx context.Context, promptID string) (imageInfo, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return imageInfo{}, ctx.Err()
		case <-ticker.C:
		}

		item, ok, err := c.history(ctx, promptID)
		if err != nil {
			c.logger.Debug("comfyui history poll failed", zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		if item.Status.StatusStr == "error" {
			return imageInfo{}, fmt.Errorf("prompt %s failed in comfyui", promptID)
		}
		for _, out := range item.Outputs {
			if len(out.Images) > 0 {
				return out.Images[0], nil
			}
		}
		if item.Status.Completed {
			return imageInfo{}, fmt.Errorf("prompt %s produced no image", promptID)
		}
	}
}

func (c *ComfyUIBackend) history(ctx context.Context, promptID string) (historyItem, bool, error) {
	resp, err := c.get(ctx, c.baseURL+"/history/"+url.PathEscape(promptID))
	if err != nil {
		return historyItem{}, false, err
	}
	defer resp.Body.Close()

	var history map[string]historyItem
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return historyItem{}, false, err
	}
	item, ok := history[promptID]
	return item, ok, nil
}

func (c *ComfyUIBackend) fetchImage(ctx context.Context, img imageInfo) ([]byte, error) {
	q := url.Values{}
	q.Set("filename", img.Filename)
	q.Set("subfolder", img.Subfolder)
	q.Set("type", img.Type)

	resp, err := c.get(ctx, c.baseURL+"/view?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *ComfyUIBackend) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("comfyui returned status %d", resp.StatusCode)
	}
	return resp, nil
}

// comfySize maps an aspect ratio to SDXL-friendly pixel dimensions.
func comfySize(aspect string) (int, int) {
	switch aspect {
	case models.AspectPortrait:
		return 768, 1344
	case models.AspectSquare:
		return 1024, 1024
	case models.AspectSheet:
		return 896, 1152
	default:
		return 1344, 768
	}
}

func (c *ComfyUIBackend) buildWorkflow(req *interfaces.ImageRequest) Workflow {
	width, height := comfySize(req.AspectRatio)

	steps := c.opts.Steps
	if steps == 0 {
		steps = 25
	}
	cfgScale := c.opts.CFGScale
	if cfgScale == 0 {
		cfgScale = 7.0
	}
	sampler := c.opts.SamplerName
	if sampler == "" {
		sampler = "euler"
	}
	scheduler := c.opts.Scheduler
	if scheduler == "" {
		scheduler = "normal"
	}

	return Workflow{
		"4": {
			ClassType: "CheckpointLoaderSimple",
			Inputs:    map[string]any{"ckpt_name": c.opts.Checkpoint},
		},
		"5": {
			ClassType: "EmptyLatentImage",
			Inputs:    map[string]any{"width": width, "height": height, "batch_size": 1},
		},
		"6": {
			ClassType: "CLIPTextEncode",
			Inputs:    map[string]any{"text": req.Prompt, "clip": []any{"4", 1}},
		},
		"7": {
			ClassType: "CLIPTextEncode",
			Inputs:    map[string]any{"text": comfyNegativePrompt, "clip": []any{"4", 1}},
		},
		"3": {
			ClassType: "KSampler",
			Inputs: map[string]any{
				"seed":         time.Now().UnixNano() % 1_000_000_000,
				"steps":        steps,
				"cfg":          cfgScale,
				"sampler_name": sampler,
				"scheduler":    scheduler,
				"denoise":      1,
				"model":        []any{"4", 0},
				"positive":     []any{"6", 0},
				"negative":     []any{"7", 0},
				"latent_image": []any{"5", 0},
			},
		},
		"8": {
			ClassType: "VAEDecode",
			Inputs:    map[string]any{"samples": []any{"3", 0}, "vae": []any{"4", 2}},
		},
		"9": {
			ClassType: "SaveImage",
			Inputs:    map[string]any{"images": []any{"8", 0}, "filename_prefix": "hakawati_" + strconv.FormatInt(time.Now().Unix(), 10)},
		},
	}
}
