package workflows

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Alerter reports pipeline failures to a human channel
type Alerter interface {
	ReportPipelineFailure(ctx context.Context, pipeline, orgID, reason string, err error) error
}

type SlackPayload struct {
	Text string `json:"text"`
}

// SlackAlerter posts to an incoming webhook. With no webhook URL it only logs.
type SlackAlerter struct {
	webhookURL string
	client     *http.Client
	now        func() time.Time
}

func NewSlackAlerter(webhookURL string) *SlackAlerter {
	return &SlackAlerter{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
		now:        time.Now,
	}
}

// ReportPipelineFailure posts a failure message with its context
func (a *SlackAlerter) ReportPipelineFailure(ctx context.Context, pipeline, orgID, reason string, err error) error {
	if err == nil {
		return nil
	}
	if pipeline == "" {
		pipeline = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}

	if a.webhookURL == "" {
		zap.L().Warn("[ReportPipelineFailure] no Slack webhook configured, alert dropped",
			zap.String("pipeline", pipeline),
			zap.String("org_id", orgID),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return nil
	}

	message := fmt.Sprintf(
		":rotating_light: *Visibility Pipeline Error*\n"+
			"*Time:* %s\n"+
			"*Pipeline:* %s\n"+
			"*Org:* %s\n"+
			"*Reason:* %s\n"+
			"*Error:* ```%s```",
		a.now().UTC().Format(time.RFC3339),
		pipeline,
		orgID,
		reason,
		err.Error(),
	)

	body, marshalErr := json.Marshal(SlackPayload{Text: message})
	if marshalErr != nil {
		return eris.Wrap(marshalErr, "failed to encode slack payload")
	}

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, a.webhookURL, bytes.NewBuffer(body))
	if reqErr != nil {
		return eris.Wrap(reqErr, "failed to build slack request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, doErr := a.client.Do(req)
	if doErr != nil {
		return eris.Wrap(doErr, "failed to post slack alert")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return eris.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}
