package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/atlasnomad/backend/internal/domain"
)

// systemPrompt fixes the classification rules. The dedup contract matters as
// much as the extraction one: a travel email matching an existing confirmation
// code, or conflicting with an existing leg on the same route and date, must
// come back as a duplicate with no new segment persisted.
const systemPrompt = `You are an expert travel assistant. Analyze the email content and determine whether it contains a travel reservation.

If it is a travel reservation (flight, hotel, train, ferry, bus, activity, or car rental), extract all relevant details. If it is a marketing email, a newsletter, or personal correspondence without a reservation, it is not a travel email.

You are also given the traveller's existing itinerary segments. A travel email is a DUPLICATE when its confirmation code matches an existing segment, or when it is a conflicting update to the same leg (same route or flight-number identity on the same date with a different time). For duplicates, do not produce a segment.

Reply with a single JSON object, no prose:
{
  "isTravelEmail": boolean,
  "isDuplicate": boolean,
  "segment": {
    "type": "flight|lodging|train|ferry|bus|activity|car",
    "status": "confirmed|delayed|cancelled",
    "title": string,
    "provider": string,
    "confirmationCode": string,
    "startTime": "HH:mm",
    "endTime": "HH:mm",
    "startLocation": string,
    "endLocation": string,
    "startLocationShort": string,
    "endLocationShort": string,
    "date": "YYYY-MM-DD",
    "duration": string,
    "details": {string: string}
  }
}
Omit "segment" when isTravelEmail is false or isDuplicate is true.
For lodging, "date" is the check-in date. Today's date is %s; use it to resolve relative dates.`

// OpenAIExtractor implements the oracle call against an OpenAI-compatible
// chat-completions endpoint in JSON mode.
type OpenAIExtractor struct {
	client *openai.Client
	model  shared.ChatModel
	logger *slog.Logger
	now    func() time.Time
}

// NewOpenAIExtractor builds an extractor for the given API key and model.
// baseURL may be empty to use the default OpenAI endpoint.
func NewOpenAIExtractor(apiKey, baseURL, model string, logger *slog.Logger) *OpenAIExtractor {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIExtractor{
		client: &client,
		model:  shared.ChatModel(model),
		logger: logger,
		now:    time.Now,
	}
}

// ClassifyAndExtract submits one email body plus the existing-segment
// baseline and returns the model's verdict.
//
// Transport and API failures come back wrapped in domain.ErrTransient;
// an unparseable reply is domain.ErrExtraction. Both are per-message
// failures; the ingestion run continues past them.
func (e *OpenAIExtractor) ClassifyAndExtract(ctx context.Context, emailBody string, existing []domain.Segment) (Result, error) {
	baseline, err := encodeExisting(existing)
	if err != nil {
		return Result{}, fmt.Errorf("extractor.ClassifyAndExtract: encode baseline: %w", err)
	}

	user := fmt.Sprintf("Existing itinerary segments:\n%s\n\nEmail content:\n---\n%s\n---", baseline, emailBody)

	completion, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: e.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(fmt.Sprintf(systemPrompt, e.now().Format("2006-01-02"))),
			openai.UserMessage(user),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return Result{}, fmt.Errorf("extractor.ClassifyAndExtract: %w: %v", domain.ErrTransient, err)
	}
	if len(completion.Choices) == 0 {
		return Result{}, fmt.Errorf("extractor.ClassifyAndExtract: %w: no completion choices", domain.ErrExtraction)
	}

	res, err := parseResult(completion.Choices[0].Message.Content)
	if err != nil {
		return Result{}, fmt.Errorf("extractor.ClassifyAndExtract: %w", err)
	}

	e.logger.Debug("oracle verdict",
		"travel", res.IsTravelEmail,
		"duplicate", res.IsDuplicate,
		"has_segment", res.Segment != nil,
	)
	return res, nil
}
