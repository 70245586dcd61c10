package gemini

import (
	"context"
	"strings"

	"github.com/diagdex/diagdex"
	"google.golang.org/genai"
)

// DefaultDescribeModel describes ASCII diagrams.
const DefaultDescribeModel = "gemini-2.5-flash"

// Ensure Describer implements diagdex.Describer at compile time.
var _ diagdex.Describer = (*Describer)(nil)

// Describer turns an ASCII diagram region into a short semantic
// description using Gemini.
type Describer struct {
	client *genai.Client
	model  string
}

// NewDescriber creates a new Describer. An empty model selects
// DefaultDescribeModel.
func NewDescriber(client *genai.Client, model string) *Describer {
	if model == "" {
		model = DefaultDescribeModel
	}
	return &Describer{client: client, model: model}
}

// Describe returns a description of the region's diagram. An empty or
// whitespace-only model response is a permanent error: retrying the
// same region is not expected to change it.
func (d *Describer) Describe(ctx context.Context, region *diagdex.DiagramRegion) (*diagdex.Description, error) {
	if region == nil || strings.TrimSpace(region.RawText) == "" {
		return nil, diagdex.Errorf(diagdex.EPERMANENT, "empty diagram region")
	}

	result, err := d.client.Models.GenerateContent(ctx, d.model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: BuildDescribePrompt(region.RawText)}},
		}},
		describeConfig(),
	)
	if err != nil {
		return nil, classify(ctx, err)
	}
	if result == nil {
		return nil, diagdex.Errorf(diagdex.EPERMANENT, "gemini returned nil result")
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return nil, diagdex.Errorf(diagdex.EPERMANENT, "gemini returned empty description")
	}

	return &diagdex.Description{
		RegionHash:   region.Hash(),
		Text:         text,
		ModelVersion: d.model,
	}, nil
}

// describeConfig returns the GenerateContentConfig for description calls.
func describeConfig() *genai.GenerateContentConfig {
	temp := float32(0.2)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You describe ASCII diagrams found in technical documentation. " +
					"Reply with one or two sentences capturing what the diagram shows: " +
					"the components, their layout, and the relationships between them. " +
					"Do not reproduce the diagram. Do not speculate beyond it.",
			}},
		},
		Temperature: &temp,
	}
}

// BuildDescribePrompt builds the user prompt containing the diagram text.
func BuildDescribePrompt(diagram string) string {
	var sb strings.Builder
	sb.WriteString("<diagram>\n")
	sb.WriteString(diagram)
	sb.WriteString("\n</diagram>\n\n")
	sb.WriteString("Describe this diagram.")
	return sb.String()
}
