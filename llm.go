package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"
const defaultOpenAIModel = "gpt-4o-mini"

// LLMExtractor implements ChangeExtractor against a hosted model. The
// response contract is a strict JSON array of change records; markdown code
// fences around it are tolerated and stripped.
type LLMExtractor struct {
	cfg Config
}

func NewLLMExtractor(cfg Config) (*LLMExtractor, error) {
	switch cfg.LLMProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic_api_key is required when llm_provider=anthropic")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai_api_key is required when llm_provider=openai")
		}
	default:
		return nil, fmt.Errorf("llm_provider must be 'anthropic' or 'openai', got '%s'", cfg.LLMProvider)
	}
	return &LLMExtractor{cfg: cfg}, nil
}

const extractSystemPrompt = `You extract structured control-system changes from industrial alarm/event log text.
A change is an operator or system modification of a control loop: setpoint (SP), controller output (OP), or mode (MODE).

For each change found, report:
- timestamp: epoch milliseconds, or the timestamp string exactly as written in the entry
- type: one of "SP", "OP", "MODE"
- old_val: previous numeric value, or null if not stated
- new_val: new value (number, or string for MODE changes like "MAN"/"AUTO")

Ignore alarm activations, acknowledgements and returns-to-normal.

Respond with JSON only (no markdown):
[{"timestamp": 1712054400000, "type": "SP", "old_val": 50.0, "new_val": 55.0}, ...]
Return [] if no changes are present.`

func (x *LLMExtractor) ExtractChanges(ctx context.Context, baseTag string, logTexts []string) ([]ExtractedChange, error) {
	if len(logTexts) == 0 {
		return nil, nil
	}

	userPrompt := "Loop: " + baseTag + "\nLog entries:\n" + strings.Join(logTexts, "\n")

	var responseText string
	var err error
	switch x.cfg.LLMProvider {
	case "openai":
		model := x.cfg.LLMModel
		if model == "" {
			model = defaultOpenAIModel
		}
		log.Printf("llm extract provider=openai model=%s tag=%s entries=%d", model, baseTag, len(logTexts))
		responseText, err = callOpenAI(ctx, x.cfg.OpenAIAPIKey, model, extractSystemPrompt, userPrompt)
	default:
		model := x.cfg.LLMModel
		if model == "" {
			model = defaultAnthropicModel
		}
		log.Printf("llm extract provider=anthropic model=%s tag=%s entries=%d", model, baseTag, len(logTexts))
		responseText, err = callAnthropic(ctx, x.cfg.AnthropicAPIKey, model, extractSystemPrompt, userPrompt)
	}
	if err != nil {
		return nil, err
	}
	return parseChangesResponse(responseText)
}

// rawChange mirrors the wire shape. Models are loose about numbers versus
// strings, so every field is decoded defensively.
type rawChange struct {
	Timestamp json.RawMessage `json:"timestamp"`
	Type      string          `json:"type"`
	OldVal    *float64        `json:"old_val"`
	NewVal    json.RawMessage `json:"new_val"`
}

func parseChangesResponse(responseText string) ([]ExtractedChange, error) {
	responseText = strings.TrimSpace(responseText)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	var raw []rawChange
	if err := json.Unmarshal([]byte(responseText), &raw); err != nil {
		truncated := responseText
		if len(truncated) > 512 {
			truncated = truncated[:512] + fmt.Sprintf("... [truncated, total_length=%d]", len(responseText))
		}
		return nil, fmt.Errorf("parsing extraction response: %w (truncated response: %s)", err, truncated)
	}

	out := make([]ExtractedChange, 0, len(raw))
	for _, r := range raw {
		ts, ok := parseChangeTimestamp(r.Timestamp)
		if !ok {
			continue
		}
		change := ExtractedChange{
			Timestamp: ts,
			Type:      strings.ToUpper(strings.TrimSpace(r.Type)),
			OldNum:    r.OldVal,
		}
		change.NewVal, change.NewNum = parseChangeValue(r.NewVal)
		out = append(out, change)
	}
	return out, nil
}

func parseChangeTimestamp(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		f, err := asNumber.Float64()
		if err != nil {
			return 0, false
		}
		n := int64(f)
		if n < 1e12 && n > 0 {
			n *= 1000 // epoch seconds
		}
		return n, n > 0
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return parseLenient(asString)
	}
	return 0, false
}

func parseChangeValue(raw json.RawMessage) (string, *float64) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var asFloat float64
	if err := json.Unmarshal(raw, &asFloat); err == nil {
		return strconv.FormatFloat(asFloat, 'f', -1, 64), &asFloat
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		asString = strings.TrimSpace(asString)
		if f, err := strconv.ParseFloat(asString, 64); err == nil {
			return asString, &f
		}
		return asString, nil
	}
	return string(raw), nil
}

// --- Anthropic ---

func callAnthropic(ctx context.Context, apiKey, model, systemPrompt, userPrompt string) (string, error) {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt, CacheControl: anthropic.NewCacheControlEphemeralParam()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		log.Printf("llm anthropic error: %v", err)
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("llm anthropic response size=%d tokens_in=%d tokens_out=%d", len(block.Text), message.Usage.InputTokens, message.Usage.OutputTokens)
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Anthropic response")
}

// --- OpenAI ---

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func callOpenAI(ctx context.Context, apiKey, model, systemPrompt, userPrompt string) (string, error) {
	reqBody := openAIRequest{
		Model: model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("llm openai error: %v", err)
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(respBody, &openAIResp); err != nil {
		return "", fmt.Errorf("parsing OpenAI response: %w", err)
	}

	if openAIResp.Error != nil {
		log.Printf("llm openai api error: %s", openAIResp.Error.Message)
		return "", fmt.Errorf("OpenAI API error: %s", openAIResp.Error.Message)
	}

	if len(openAIResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}
	log.Printf("llm openai response size=%d", len(openAIResp.Choices[0].Message.Content))
	return openAIResp.Choices[0].Message.Content, nil
}
