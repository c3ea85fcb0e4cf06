// Package ai wraps the chat-model providers behind one client used for
// response generation and attached-file analysis.
package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"medichat/internal/config"
	"medichat/internal/models"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

const (
	assistantSystemPrompt = "You are a medical assistant. Answer using only the provided " +
		"patient and file context; say so when the context does not cover the question."

	// Text file content beyond this is not sent to the model; analysis of a
	// clipped file still covers its beginning.
	maxInlineTextBytes = 8000
)

// Client is the AI surface the orchestrator depends on.
type Client interface {
	GenerateResponse(ctx context.Context, query, contextBlock string) (string, error)
	AnalyzeFile(ctx context.Context, content []byte, name, mediaType string) (*models.FileAnalysis, error)
	SummarizeFile(ctx context.Context, analysis *models.FileAnalysis, name string) (string, error)
}

type aiService struct {
	aiModel model.ToolCallingChatModel
	cfg     config.ProviderConfig
}

// NewAiService builds a client for the configured provider. The model type
// falls back to the provider's configured default.
func NewAiService(cfg *config.Config, provider, modelType string) (Client, error) {
	provCfg, ok := cfg.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured", provider)
	}
	if modelType == "" {
		modelType = provCfg.Model
	}

	var chatModel model.ToolCallingChatModel
	var err error
	switch provider {
	case "openai":
		chatModel, err = openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   modelType,
			APIKey:  provCfg.APIKey})
	case "gemini":
		client, cerr := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: provCfg.APIKey,
		})
		if cerr != nil {
			log.Fatalf("NewClient of gemini failed, err=%v", cerr)
		}
		chatModel, err = gemini.NewChatModel(context.Background(), &gemini.Config{
			Client: client,
			Model:  modelType,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(context.Background(), &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     modelType,
			BaseURL:   baseURLPtr,
			MaxTokens: 3000,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("start ai service: %w", err)
	}

	return &aiService{aiModel: chatModel, cfg: provCfg}, nil
}

// GenerateResponse answers the query against the assembled context block.
func (s *aiService) GenerateResponse(ctx context.Context, query, contextBlock string) (string, error) {
	messages := []*schema.Message{
		{Role: schema.System, Content: assistantSystemPrompt},
		{Role: schema.User, Content: fmt.Sprintf("CONTEXT:\n%s\n\nQUESTION: %s", contextBlock, query)},
	}
	resp, err := s.aiModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate response: %w", err)
	}
	return resp.Content, nil
}

// AnalyzeFile asks the model to describe an attached file. Images travel as
// inline base64 parts; text files are embedded directly; anything else is
// analyzed from its metadata alone.
func (s *aiService) AnalyzeFile(ctx context.Context, content []byte, name, mediaType string) (*models.FileAnalysis, error) {
	userMsg := &schema.Message{Role: schema.User}

	switch {
	case strings.HasPrefix(mediaType, "image/"):
		encoded := base64.StdEncoding.EncodeToString(content)
		userMsg.MultiContent = []schema.ChatMessagePart{
			{
				Type: schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{
					URL:      fmt.Sprintf("data:%s;base64,%s", mediaType, encoded),
					MIMEType: mediaType,
				},
			},
			{
				Type: schema.ChatMessagePartTypeText,
				Text: fmt.Sprintf("Describe the medical content of this image (%s). List any patient details, findings, or medications visible.", name),
			},
		}
	case isTextual(mediaType):
		body := content
		if len(body) > maxInlineTextBytes {
			body = body[:maxInlineTextBytes]
		}
		userMsg.Content = fmt.Sprintf(
			"Analyze this medical document %q and describe its key content (conditions, medications, dates, patient details):\n\n%s",
			name, string(body))
	default:
		userMsg.Content = fmt.Sprintf(
			"A file named %q of type %s (%d bytes) was attached. Describe what such a file typically contains in a medical context.",
			name, mediaType, len(content))
	}

	resp, err := s.aiModel.Generate(ctx, []*schema.Message{
		{Role: schema.System, Content: "You analyze medical documents and images. Be factual and concise."},
		userMsg,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze file %s: %w", name, err)
	}

	analysis := &models.FileAnalysis{
		Description: resp.Content,
		MediaType:   mediaType,
	}
	if isTextual(mediaType) {
		analysis.ExtractedText = string(content)
	}
	return analysis, nil
}

// SummarizeFile condenses an analysis into a short fragment for the chat
// context window.
func (s *aiService) SummarizeFile(ctx context.Context, analysis *models.FileAnalysis, name string) (string, error) {
	resp, err := s.aiModel.Generate(ctx, []*schema.Message{
		{Role: schema.System, Content: "Summarize file analyses in at most three sentences."},
		{Role: schema.User, Content: fmt.Sprintf("Summarize the analysis of file %q for use as chat context:\n\n%s", name, analysis.Description)},
	})
	if err != nil {
		return "", fmt.Errorf("summarize file %s: %w", name, err)
	}
	return resp.Content, nil
}

func isTextual(mediaType string) bool {
	if strings.HasPrefix(mediaType, "text/") {
		return true
	}
	switch mediaType {
	case "application/json", "application/xml", "application/csv":
		return true
	}
	return false
}
