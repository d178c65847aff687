// Package gpt runs discovery against OpenAI or an Azure OpenAI deployment
// with structured outputs.
package gpt

import (
	"context"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/common"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

const (
	defaultModel    = "gpt-4.1-mini"
	azureAPIVersion = "2024-12-01-preview"
	maxOutputTokens = 800
	temperature     = 0.0
)

var discoverySchema = services.GenerateSchema[common.DiscoveryResponse]()

// Discoverer asks a chat completion model which candidate terms are organizations
type Discoverer struct {
	client      openai.Client
	model       string
	provider    string
	costService services.CostService
}

// NewDiscoverer uses Azure OpenAI when endpoint, key and deployment are all
// set, otherwise api.openai.com. The SDK's own retries are disabled.
func NewDiscoverer(cfg *config.Config, costService services.CostService, opts ...option.RequestOption) *Discoverer {
	if cfg == nil {
		cfg = &config.Config{}
	}

	d := &Discoverer{
		model:       cfg.Discovery.Model,
		provider:    "openai",
		costService: costService,
	}
	if d.model == "" || !looksLikeOpenAIModel(d.model) {
		d.model = defaultModel
	}

	base := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.AzureOpenAIEndpoint != "" && cfg.AzureOpenAIKey != "" && cfg.AzureOpenAIDeploymentName != "" {
		base = append(base,
			azure.WithEndpoint(cfg.AzureOpenAIEndpoint, azureAPIVersion),
			azure.WithAPIKey(cfg.AzureOpenAIKey),
		)
		d.model = cfg.AzureOpenAIDeploymentName
		d.provider = "azure-openai"
		zap.L().Info("[NewDiscoverer] using Azure OpenAI",
			zap.String("endpoint", cfg.AzureOpenAIEndpoint),
			zap.String("deployment", cfg.AzureOpenAIDeploymentName),
		)
	} else {
		base = append(base, option.WithAPIKey(cfg.OpenAIAPIKey))
		zap.L().Info("[NewDiscoverer] using OpenAI", zap.String("model", d.model))
	}

	d.client = openai.NewClient(append(base, opts...)...)
	return d
}

func (d *Discoverer) Name() string {
	return d.provider
}

func (d *Discoverer) Discover(ctx context.Context, req models.DiscoveryRequest) (*models.DiscoveryResult, error) {
	if len(req.Candidates) == 0 {
		return &models.DiscoveryResult{}, nil
	}

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(common.SystemPrompt),
			openai.UserMessage(common.BuildDiscoveryPrompt(req)),
		},
		Model: openai.ChatModel(d.model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "organization_discovery",
					Description: openai.String("Candidate terms that name organizations"),
					Schema:      discoverySchema,
					Strict:      openai.Bool(true),
				},
			},
		},
		MaxCompletionTokens: openai.Int(maxOutputTokens),
	}
	if !strings.HasPrefix(d.model, "gpt-5") {
		params.Temperature = openai.Float(temperature)
	}

	resp, err := d.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, eris.Wrapf(err, "discovery call to %s failed", d.model)
	}
	if len(resp.Choices) == 0 {
		return nil, eris.Wrap(services.ErrEmptyDiscoveryResponse, "no choices returned")
	}

	orgs, err := common.ParseDiscoveryResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	inputTokens := int(resp.Usage.PromptTokens)
	outputTokens := int(resp.Usage.CompletionTokens)
	result := &models.DiscoveryResult{
		Organizations: orgs,
		InputTokens:   inputTokens,
		OutputTokens:  outputTokens,
	}
	if d.costService != nil {
		result.Cost = d.costService.CalculateCost(d.provider, d.model, inputTokens, outputTokens)
	}

	zap.L().Debug("[Discover] discovery call completed",
		zap.String("model", d.model),
		zap.Int("candidates", len(req.Candidates)),
		zap.Int("organizations", len(orgs)),
		zap.Int("input_tokens", inputTokens),
		zap.Int("output_tokens", outputTokens),
	)
	return result, nil
}

func looksLikeOpenAIModel(model string) bool {
	m := strings.ToLower(model)
	return strings.HasPrefix(m, "gpt") || strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3") || strings.HasPrefix(m, "o4")
}
