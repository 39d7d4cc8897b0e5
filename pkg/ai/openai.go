package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	draftDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "linguaflow",
		Subsystem: "ai",
		Name:      "draft_duration_seconds",
		Help:      "Duration of AI feedback draft requests",
	}, []string{"model"})

	draftFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "linguaflow",
		Subsystem: "ai",
		Name:      "draft_failures_total",
		Help:      "Number of AI feedback draft failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI drafter.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIDrafter implements FeedbackDrafter against the OpenAI chat
// completion API.
type OpenAIDrafter struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIDrafter builds a new drafter using the provided configuration.
func NewOpenAIDrafter(cfg OpenAIConfig) (*OpenAIDrafter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	tracer := otel.Tracer("github.com/linguaflow/linguaflow-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIDrafter{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Draft sends the answer to OpenAI and parses the suggested feedback.
func (d *OpenAIDrafter) Draft(parent context.Context, input DraftInput) (DraftResult, error) {
	ctx, span := d.tracer.Start(parent, "openai.draft", trace.WithAttributes(
		attribute.String("model", d.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       d.cfg.Model,
		MaxTokens:   d.cfg.MaxTokens,
		Temperature: d.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: drafterSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildDraftPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := d.client.CreateChatCompletion(ctx, request)
	duration := time.Since(start)
	draftDuration.WithLabelValues(d.cfg.Model).Observe(duration.Seconds())
	if err != nil {
		draftFailures.WithLabelValues(d.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return DraftResult{}, fmt.Errorf("openai draft: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		draftFailures.WithLabelValues(d.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return DraftResult{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, err := parseDraftResponse(content)
	if err != nil {
		draftFailures.WithLabelValues(d.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return DraftResult{}, err
	}

	result.Model = d.cfg.Model
	result.Raw = map[string]interface{}{
		"usage": resp.Usage,
	}

	return result, nil
}

func drafterSystemPrompt() string {
	return "You are a language tutor's assistant. Given a student's free-text answer to a language exercise, respond with a JSO" +
		"N object containing a single feedback field: two or three encouraging sentences pointing out what the student got rig" +
		"ht and one concrete improvement. Never assign a score."
}

func buildDraftPrompt(input DraftInput) string {
	builder := strings.Builder{}
	if input.ExercisePrompt != "" {
		builder.WriteString("# Exercise\n")
		builder.WriteString(input.ExercisePrompt)
		builder.WriteString("\n\n")
	}
	if input.TargetLanguage != "" {
		builder.WriteString("# Target Language\n")
		builder.WriteString(input.TargetLanguage)
		builder.WriteString("\n\n")
	}
	builder.WriteString("# Student Answer\n")
	builder.WriteString(input.AnswerText)
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseDraftResponse(content string) (DraftResult, error) {
	type payload struct {
		Feedback string `json:"feedback"`
	}

	var data payload
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return DraftResult{}, fmt.Errorf("parse draft json: %w", err)
	}

	if strings.TrimSpace(data.Feedback) == "" {
		return DraftResult{}, fmt.Errorf("empty feedback in draft response")
	}

	return DraftResult{Feedback: data.Feedback}, nil
}
