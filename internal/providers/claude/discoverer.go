// Package claude runs discovery against the Anthropic Messages API
package claude

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/common"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

const (
	defaultModel    = "claude-3-5-haiku-20241022"
	maxOutputTokens = 800
)

// Discoverer asks a Claude model which candidate terms are organizations.
// Claude has no schema mode here, so the reply goes through the lenient parser.
type Discoverer struct {
	client      anthropic.Client
	model       string
	costService services.CostService
}

func NewDiscoverer(cfg *config.Config, costService services.CostService, opts ...option.RequestOption) *Discoverer {
	if cfg == nil {
		cfg = &config.Config{}
	}

	model := cfg.Discovery.Model
	if !strings.HasPrefix(strings.ToLower(model), "claude") {
		model = defaultModel
	}

	base := []option.RequestOption{
		option.WithAPIKey(cfg.AnthropicAPIKey),
		option.WithMaxRetries(0),
	}
	zap.L().Info("[NewDiscoverer] using Anthropic", zap.String("model", model))

	return &Discoverer{
		client:      anthropic.NewClient(append(base, opts...)...),
		model:       model,
		costService: costService,
	}
}

func (d *Discoverer) Name() string {
	return "anthropic"
}

func (d *Discoverer) Discover(ctx context.Context, req models.DiscoveryRequest) (*models.DiscoveryResult, error) {
	if len(req.Candidates) == 0 {
		return &models.DiscoveryResult{}, nil
	}

	resp, err := d.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(d.model),
		MaxTokens: maxOutputTokens,
		System:    []anthropic.TextBlockParam{{Text: common.SystemPrompt}},
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: common.BuildDiscoveryPrompt(req)},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return nil, eris.Wrapf(err, "discovery call to %s failed", d.model)
	}

	orgs, err := common.ParseDiscoveryResponse(responseText(resp))
	if err != nil {
		return nil, err
	}

	inputTokens := int(resp.Usage.InputTokens)
	outputTokens := int(resp.Usage.OutputTokens)
	result := &models.DiscoveryResult{
		Organizations: orgs,
		InputTokens:   inputTokens,
		OutputTokens:  outputTokens,
	}
	if d.costService != nil {
		result.Cost = d.costService.CalculateCost("anthropic", d.model, inputTokens, outputTokens)
	}

	zap.L().Debug("[Discover] discovery call completed",
		zap.String("model", d.model),
		zap.Int("candidates", len(req.Candidates)),
		zap.Int("organizations", len(orgs)),
	)
	return result, nil
}

func responseText(resp *anthropic.Message) string {
	var b strings.Builder
	for _, block := range resp.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			b.WriteString(v.Text)
		}
	}
	return b.String()
}
