package openai

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

const promptSystem = `
You are **GrabCare Analyzer**, a vision-enabled expert that converts customer
complaints about food, grocery, ride-hailing and parcel orders (text ± photo)
into a structured violation report.

########################################
# 1. MISSION
########################################
For every input you MUST:

Step 1: ========: Identify what went wrong with the order from the complaint text and, if present, the photo.
Step 2: ========: Classify the violation type, its severity and the strength of the evidence provided.
Step 3: ========: Fill every field in the JSON schema (see § 3) using direct evidence or the inference heuristics (see § 4).
Step 4: ========: Output a **single, valid JSON object** and nothing else.

########################################
# 2. OUTPUT RULES
########################################
* JSON only — no wrapping markdown.
* severity must be exactly one of: minor | moderate | severe | critical.
* evidence_level must be exactly one of: customer_claim | photo_provided | measurement.
* Use "photo_provided" only when an image was actually attached; "measurement" only when the complaint quotes a weighed/measured/receipted figure.
* Set repeat_occurrence to true only if the complaint text states this has happened before.
* The summary must be 1-2 sentences quoting the concrete facts of the complaint.

########################################
# 3. OUTPUT SCHEMA
{
  "violation_type":    "<quality | safety | portion | timing | cold_chain | wrong_item | damaged | behavior>",
  "severity":          "<minor | moderate | severe | critical>",
  "evidence_level":    "<customer_claim | photo_provided | measurement>",
  "repeat_occurrence": <true | false>,
  "summary":           "<1-2 sentences quoting key facts>",
  "confidence":        <0.0-1.0>
}
########################################

4. INFERENCE HEURISTICS
########################################

Severity mapping — Use:

Health risk (raw food, food poisoning, allergen, spoiled perishables) → critical.

Safety risk (accident, harassment, broken cold chain) → severe or critical.

Wrong/missing/damaged item, large portion shortfall → moderate or severe.

Late delivery, cold food, packaging nitpicks → minor or moderate.

Evidence mapping — A photo clearly showing the defect → photo_provided. A
quoted weight, temperature or receipt line → measurement. Otherwise
customer_claim.
`

type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ImageContent struct {
	Type     string   `json:"type"`
	ImageURL ImageURL `json:"image_url"`
}

type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content any `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client represents an OpenAI API client
type Client struct {
	apiKey string
	model  string
	client *http.Client
}

// NewClient creates a new OpenAI client
func NewClient(apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

// SourceName identifies this provider in saved resolutions
func (c *Client) SourceName() string {
	return "ChatGPT"
}

// encodeImageToBase64 converts image bytes to base64 data URL
func encodeImageToBase64(imageData []byte) string {
	base64Data := base64.StdEncoding.EncodeToString(imageData)
	return fmt.Sprintf("data:image/jpeg;base64,%s", base64Data)
}

// AnalyzeComplaint analyzes a complaint (and evidence photo, if any) using
// OpenAI's vision API
func (c *Client) AnalyzeComplaint(evidence []byte, complaint string) (string, error) {
	userContent := []any{}
	if len(evidence) > 0 {
		userContent = append(userContent, ImageContent{
			Type: "image_url",
			ImageURL: ImageURL{
				URL: encodeImageToBase64(evidence),
			},
		})
	}
	userContent = append(userContent, TextContent{
		Type: "text",
		Text: complaint,
	})

	reqBody := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{
				Role: "system",
				Content: []any{
					TextContent{Type: "text", Text: promptSystem},
				},
			},
			{
				Role:    "user",
				Content: userContent,
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", openAIEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	// Extract the text content from the response
	content := chatResp.Choices[0].Message.Content
	if contentStr, ok := content.(string); ok {
		return contentStr, nil
	}

	// If content is not a string, try to marshal it back to JSON
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("failed to marshal content: %w", err)
	}

	return string(contentJSON), nil
}
