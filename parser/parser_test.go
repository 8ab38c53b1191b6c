package parser

import (
	"testing"

	"github.com/AdityaBS04/GrabHackProper-sub000/models"
)

func TestParseViolation(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantErr  bool
		expected *models.ViolationDetails
	}{
		{
			name: "valid JSON response",
			response: `{
				"violation_type": "quality",
				"severity": "severe",
				"evidence_level": "photo_provided",
				"repeat_occurrence": false,
				"summary": "The biryani arrived undercooked with visibly raw rice grains.",
				"confidence": 0.92
			}`,
			wantErr: false,
			expected: &models.ViolationDetails{
				Type:          "quality",
				Severity:      models.SeveritySevere,
				EvidenceLevel: models.EvidencePhoto,
				Summary:       "The biryani arrived undercooked with visibly raw rice grains.",
			},
		},
		{
			name: "JSON wrapped in markdown code block",
			response: "```json\n" + `{
				"violation_type": "cold_chain",
				"severity": "critical",
				"evidence_level": "measurement",
				"repeat_occurrence": true,
				"summary": "Ice cream delivered at 12 degrees, fully melted.",
				"confidence": 0.99
			}` + "\n```",
			wantErr: false,
			expected: &models.ViolationDetails{
				Type:             "cold_chain",
				Severity:         models.SeverityCritical,
				EvidenceLevel:    models.EvidenceMeasurement,
				RepeatOccurrence: true,
				Summary:          "Ice cream delivered at 12 degrees, fully melted.",
			},
		},
		{
			name: "JSON embedded in prose",
			response: `Here is my analysis of the complaint:
			{"violation_type": "timing", "severity": "minor", "evidence_level": "customer_claim", "repeat_occurrence": false, "summary": "Order was 40 minutes late.", "confidence": 0.7}
			Let me know if you need anything else.`,
			wantErr: false,
			expected: &models.ViolationDetails{
				Type:          "timing",
				Severity:      models.SeverityMinor,
				EvidenceLevel: models.EvidenceCustomerClaim,
				Summary:       "Order was 40 minutes late.",
			},
		},
		{
			name: "evidence level synonyms accepted",
			response: `{
				"violation_type": "portion",
				"severity": "moderate",
				"evidence_level": "receipt",
				"repeat_occurrence": false,
				"summary": "Receipt shows 500g, scale shows 340g.",
				"confidence": 0.8
			}`,
			wantErr: false,
			expected: &models.ViolationDetails{
				Type:          "portion",
				Severity:      models.SeverityModerate,
				EvidenceLevel: models.EvidenceMeasurement,
				Summary:       "Receipt shows 500g, scale shows 340g.",
			},
		},
		{
			name:     "invalid JSON",
			response: `{"violation_type": "quality`,
			wantErr:  true,
		},
		{
			name: "missing violation type",
			response: `{
				"severity": "severe",
				"evidence_level": "photo_provided",
				"confidence": 0.9
			}`,
			wantErr: true,
		},
		{
			name: "unrecognized severity",
			response: `{
				"violation_type": "quality",
				"severity": "catastrophic",
				"evidence_level": "photo_provided",
				"confidence": 0.9
			}`,
			wantErr: true,
		},
		{
			name: "unrecognized evidence level",
			response: `{
				"violation_type": "quality",
				"severity": "severe",
				"evidence_level": "video",
				"confidence": 0.9
			}`,
			wantErr: true,
		},
		{
			name: "confidence out of range",
			response: `{
				"violation_type": "quality",
				"severity": "severe",
				"evidence_level": "photo_provided",
				"confidence": 1.5
			}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseViolation(tt.response)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseViolation() expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseViolation() unexpected error: %v", err)
			}
			if *got != *tt.expected {
				t.Errorf("ParseViolation() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestExtractJSONFromMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain JSON passes through",
			input:    `{"severity": "minor"}`,
			expected: `{"severity": "minor"}`,
		},
		{
			name:     "code fence with language",
			input:    "```json\n{\"severity\": \"minor\"}\n```",
			expected: `{"severity": "minor"}`,
		},
		{
			name:     "code fence without language",
			input:    "```\n{\"severity\": \"minor\"}\n```",
			expected: `{"severity": "minor"}`,
		},
		{
			name:     "JSON surrounded by prose",
			input:    "Analysis follows: {\"severity\": \"minor\"} done.",
			expected: `{"severity": "minor"}`,
		},
		{
			name:     "no JSON at all",
			input:    "no structured content here",
			expected: "no structured content here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSONFromMarkdown(tt.input); got != tt.expected {
				t.Errorf("ExtractJSONFromMarkdown() = %q, want %q", got, tt.expected)
			}
		})
	}
}
