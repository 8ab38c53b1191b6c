package gemini

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const promptSystem = `
You are **GrabCare Analyzer**, a vision-enabled expert that converts customer
complaints about food, grocery, ride-hailing and parcel orders (text ± photo)
into a structured violation report.

For every input you MUST:

Step 1: Identify what went wrong with the order from the complaint text and, if present, the photo.
Step 2: Classify the violation type, its severity and the strength of the evidence provided.
Step 3: Fill every field in the JSON schema below and output a single valid JSON object, nothing else.

Rules:
* severity must be exactly one of: minor | moderate | severe | critical.
* evidence_level must be exactly one of: customer_claim | photo_provided | measurement.
* Use "photo_provided" only when an image was actually attached; "measurement" only when the complaint quotes a weighed/measured/receipted figure.
* Set repeat_occurrence to true only if the complaint text states this has happened before.
* Health risks (raw food, food poisoning, allergens, spoiled perishables) are critical; safety risks (accidents, harassment, broken cold chain) are severe or critical; wrong or damaged items are moderate or severe; timing and packaging issues are minor or moderate.

Schema:
{
  "violation_type":    "<quality | safety | portion | timing | cold_chain | wrong_item | damaged | behavior>",
  "severity":          "<minor | moderate | severe | critical>",
  "evidence_level":    "<customer_claim | photo_provided | measurement>",
  "repeat_occurrence": <true | false>,
  "summary":           "<1-2 sentences quoting key facts>",
  "confidence":        <0.0-1.0>
}
`

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"response_mime_type,omitempty"`
}

type geminiRequest struct {
	GenerationConfig generationConfig `json:"generationConfig,omitempty"`
	Contents         []content        `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text,omitempty"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type Client struct {
	apiKey string
	model  string
	http   *http.Client
}

func NewClient(apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		http:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) SourceName() string {
	return "Gemini"
}

func (c *Client) AnalyzeComplaint(evidence []byte, complaint string) (string, error) {
	parts := []part{{Text: promptSystem}}
	if complaint != "" {
		parts = append(parts, part{Text: complaint})
	}
	if len(evidence) > 0 {
		parts = append(parts, part{
			InlineData: &inlineData{
				MimeType: "image/jpeg",
				Data:     base64.StdEncoding.EncodeToString(evidence),
			},
		})
	}

	reqBody := geminiRequest{
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
		Contents: []content{
			{
				Role:  "user",
				Parts: parts,
			},
		},
	}

	return c.generateContent(reqBody)
}

func (c *Client) generateContent(body geminiRequest) (string, error) {
	// try v1beta first, then v1
	endpoints := []string{
		fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s", c.model, c.apiKey),
		fmt.Sprintf("https://generativelanguage.googleapis.com/v1/models/%s:generateContent?key=%s", c.model, c.apiKey),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for _, ep := range endpoints {
		req, err := http.NewRequest("POST", ep, bytes.NewBuffer(data))
		if err != nil {
			lastErr = fmt.Errorf("failed to create request: %w", err)
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("failed to send request: %w", err)
			continue
		}
		defer resp.Body.Close()
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
			// retry next endpoint if available
			continue
		}
		var gr geminiResponse
		if err := json.Unmarshal(bodyBytes, &gr); err != nil {
			lastErr = fmt.Errorf("failed to parse response: %w", err)
			continue
		}
		if len(gr.Candidates) == 0 {
			lastErr = fmt.Errorf("no candidates in response")
			continue
		}
		// find first text part
		for _, p := range gr.Candidates[0].Content.Parts {
			if p.Text != "" {
				return p.Text, nil
			}
		}
		lastErr = fmt.Errorf("no text part in response")
	}
	return "", lastErr
}
