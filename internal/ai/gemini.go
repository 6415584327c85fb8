package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/xxxsen/docchat/internal/model"
	apperrors "github.com/xxxsen/docchat/internal/pkg/errors"
)

type geminiProvider struct{}

func init() {
	Register("gemini", func(args interface{}) (Provider, error) {
		return &geminiProvider{}, nil
	})
}

func (p *geminiProvider) Name() string {
	return "gemini"
}

func (p *geminiProvider) Generate(ctx context.Context, modelName string, req GenerateRequest, apiKey string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("%w: init client: %v", apperrors.ErrTransport, err)
	}
	contents := buildContents(req)
	resp, err := client.Models.GenerateContent(ctx, modelName, contents, nil)
	if err != nil {
		return "", classifyError(err)
	}
	if len(resp.Candidates) == 0 {
		return "", apperrors.ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", apperrors.ErrEmptyResponse
	}
	return text, nil
}

func (p *geminiProvider) Embed(ctx context.Context, modelName string, texts []string, taskType string, apiKey string) ([][]float32, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: init client: %v", apperrors.ErrTransport, err)
	}
	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, &genai.Content{Parts: []*genai.Part{{Text: text}}})
	}
	var config *genai.EmbedContentConfig
	if taskType != "" {
		config = &genai.EmbedContentConfig{TaskType: taskType}
	}
	resp, err := client.Models.EmbedContent(ctx, modelName, contents, config)
	if err != nil {
		return nil, classifyError(err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", apperrors.ErrEmptyResponse, len(resp.Embeddings), len(texts))
	}
	result := make([][]float32, 0, len(resp.Embeddings))
	for _, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("%w: empty embedding values", apperrors.ErrEmptyResponse)
		}
		result = append(result, emb.Values)
	}
	return result, nil
}

func buildContents(req GenerateRequest) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := genai.RoleUser
		if turn.Role == model.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: turn.Text}},
		})
	}
	contents = append(contents, &genai.Content{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: req.Prompt}},
	})
	return contents
}

func classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %s", apperrors.ErrRateLimited, apiErr.Message)
		}
		return fmt.Errorf("%w: api error %d: %s", apperrors.ErrTransport, apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("%w: %v", apperrors.ErrTransport, err)
}
