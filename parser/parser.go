package parser

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/AdityaBS04/GrabHackProper-sub000/models"
)

// ExtractionResult represents the parsed violation analysis from the LLM
type ExtractionResult struct {
	ViolationType    string  `json:"violation_type"`
	Severity         string  `json:"severity"`
	EvidenceLevel    string  `json:"evidence_level"`
	RepeatOccurrence bool    `json:"repeat_occurrence"`
	Summary          string  `json:"summary"`
	Confidence       float64 `json:"confidence"`
}

// ExtractJSONFromMarkdown extracts JSON from markdown code blocks
func ExtractJSONFromMarkdown(response string) string {
	// Look for JSON code blocks with ``` markers
	startMarker := "```"
	endMarker := "```"

	startIdx := strings.Index(response, startMarker)
	if startIdx == -1 {
		// No code block found, try to find JSON object directly
		startIdx = strings.Index(response, "{")
		if startIdx == -1 {
			return response
		}
		endIdx := strings.LastIndex(response, "}")
		if endIdx == -1 {
			return response
		}
		return strings.TrimSpace(response[startIdx : endIdx+1])
	}

	// Find the end of the first code block
	endIdx := strings.Index(response[startIdx+len(startMarker):], endMarker)
	if endIdx == -1 {
		return response
	}
	endIdx += startIdx + len(startMarker)

	// Extract content between the markers
	content := response[startIdx+len(startMarker) : endIdx]

	// Remove the language identifier if present (e.g., "json")
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > 0 && (strings.TrimSpace(lines[0]) == "json" || strings.TrimSpace(lines[0]) == "") {
		content = strings.Join(lines[1:], "\n")
	}

	return strings.TrimSpace(content)
}

var severityValues = map[string]models.Severity{
	"minor":    models.SeverityMinor,
	"moderate": models.SeverityModerate,
	"severe":   models.SeveritySevere,
	"critical": models.SeverityCritical,
}

var evidenceValues = map[string]models.EvidenceLevel{
	"customer_claim": models.EvidenceCustomerClaim,
	"claim":          models.EvidenceCustomerClaim,
	"photo_provided": models.EvidencePhoto,
	"photo":          models.EvidencePhoto,
	"measurement":    models.EvidenceMeasurement,
	"receipt":        models.EvidenceMeasurement,
}

// ParseViolation parses the LLM response and extracts ViolationDetails.
// Any missing or out-of-vocabulary required field is an error so the caller
// falls through to the keyword extractor.
func ParseViolation(response string) (*models.ViolationDetails, error) {
	cleaned := strings.TrimSpace(response)
	jsonContent := ExtractJSONFromMarkdown(cleaned)

	var result ExtractionResult
	if err := json.Unmarshal([]byte(jsonContent), &result); err != nil {
		return nil, errors.New("failed to parse JSON response: " + err.Error())
	}

	if result.ViolationType == "" {
		return nil, errors.New("violation_type is required")
	}
	severity, ok := severityValues[strings.ToLower(strings.TrimSpace(result.Severity))]
	if !ok {
		return nil, errors.New("unrecognized severity: " + result.Severity)
	}
	evidence, ok := evidenceValues[strings.ToLower(strings.TrimSpace(result.EvidenceLevel))]
	if !ok {
		return nil, errors.New("unrecognized evidence_level: " + result.EvidenceLevel)
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return nil, errors.New("confidence must be between 0 and 1")
	}

	return &models.ViolationDetails{
		Type:             result.ViolationType,
		Severity:         severity,
		EvidenceLevel:    evidence,
		RepeatOccurrence: result.RepeatOccurrence,
		Summary:          result.Summary,
	}, nil
}
