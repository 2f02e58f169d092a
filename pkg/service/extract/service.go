package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
	"github.com/clinmon-lab/asclepius/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

// ErrExtractionExhausted indicates the model never produced a usable response
// within the clarification budget. Callers record this as a failed extraction
// and continue; it never aborts the patient's run.
var ErrExtractionExhausted = goerr.New("extraction exhausted clarification rounds")

// client implements Service interface
type client struct {
	llmClient gollem.LLMClient
	maxRounds int
	backoff   time.Duration
}

// Option is a functional option for client configuration
type Option func(*client)

// WithMaxRounds caps the number of model calls per document, counting
// clarification retries (default 3)
func WithMaxRounds(n int) Option {
	return func(c *client) {
		c.maxRounds = n
	}
}

// WithBackoff sets the base wait between clarification rounds; the wait grows
// linearly with the round number (default 500ms)
func WithBackoff(d time.Duration) Option {
	return func(c *client) {
		c.backoff = d
	}
}

// New creates a new extraction service with the provided LLM client
func New(llmClient gollem.LLMClient, opts ...Option) (Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &client{
		llmClient: llmClient,
		maxRounds: 3,
		backoff:   500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Extract runs the structured-output session for one document. A response
// that fails to parse or violates the value constraints triggers a
// clarification round naming the defect; the budget is capped so a confused
// model cannot stall the batch.
func (c *client) Extract(ctx context.Context, input Input) (*Result, error) {
	logger := logging.From(ctx)

	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(buildResponseSchema()),
		gollem.WithSessionSystemPrompt(buildSystemPrompt()),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	prompt := buildUserPrompt(input)

	var lastDefect string
	for round := 1; round <= c.maxRounds; round++ {
		if round > 1 {
			wait := time.Duration(round-1) * c.backoff
			select {
			case <-ctx.Done():
				return nil, goerr.Wrap(ctx.Err(), "extraction canceled",
					goerr.V("documentID", input.DocumentID))
			case <-time.After(wait):
			}
			prompt = buildClarificationPrompt(lastDefect)
			logger.Debug("extraction clarification round",
				"documentID", input.DocumentID,
				"round", round,
				"defect", lastDefect,
			)
		}

		resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to generate content from LLM",
				goerr.V("documentID", input.DocumentID),
				goerr.V("round", round))
		}
		if len(resp.Texts) == 0 {
			lastDefect = "the response contained no text"
			continue
		}

		result, defect := c.parseResponse(input, resp.Texts[0])
		if defect != "" {
			lastDefect = defect
			continue
		}

		result.Rounds = round
		return result, nil
	}

	return nil, goerr.Wrap(ErrExtractionExhausted, "giving up on document",
		goerr.V("documentID", input.DocumentID),
		goerr.V("rounds", c.maxRounds),
		goerr.V("lastDefect", lastDefect))
}

// parseResponse validates the model output. A non-empty defect string means
// the response must be retried with a clarification.
func (c *client) parseResponse(input Input, text string) (*Result, string) {
	var llmResp llmResponse
	if err := json.Unmarshal([]byte(text), &llmResp); err != nil {
		return nil, fmt.Sprintf("the response was not valid JSON: %v", err)
	}

	result := &Result{}

	for _, f := range llmResp.Facts {
		if f.Name == "" || f.Value == "" {
			return nil, "every fact requires a non-empty name and value"
		}
		srcType := types.FactSourceType(f.SourceType)
		if !srcType.IsValid() {
			return nil, fmt.Sprintf("source_type %q is not one of the allowed values", f.SourceType)
		}
		if f.Confidence < 0 || f.Confidence > 1 {
			return nil, fmt.Sprintf("confidence %f is outside [0, 1]", f.Confidence)
		}
		result.Facts = append(result.Facts, &model.ExtractedFact{
			Subject:      f.Subject,
			Name:         f.Name,
			Value:        f.Value,
			Confidence:   f.Confidence,
			EvidenceSpan: f.Evidence,
			DocumentID:   input.DocumentID,
			SourceType:   srcType,
			SourceDate:   input.DocumentDate,
		})
	}

	if llmResp.DiseaseStatus != nil {
		status := types.DiseaseStatus(llmResp.DiseaseStatus.Status)
		if !status.IsValid() {
			return nil, fmt.Sprintf("disease status %q is not one of the allowed values", llmResp.DiseaseStatus.Status)
		}
		result.Status = &model.StatusObservation{
			Date:       input.DocumentDate,
			Status:     status,
			DocumentID: input.DocumentID,
		}
	}

	return result, ""
}

// buildSystemPrompt creates the fixed system prompt for clinical extraction
func buildSystemPrompt() string {
	var sb strings.Builder

	sb.WriteString("You are a clinical fact extraction assistant. Your task is to read one clinical document and extract structured facts from it.\n\n")
	sb.WriteString("## Instructions:\n\n")
	sb.WriteString("1. Extract every discrete clinical fact the document states explicitly. Do not infer facts the text does not support.\n")
	sb.WriteString("2. For each fact, provide:\n")
	sb.WriteString("   - subject: the event or entity the fact describes (e.g. a procedure identifier or anatomical site)\n")
	sb.WriteString("   - name: a snake_case fact name (e.g. extent_of_resection)\n")
	sb.WriteString("   - value: the fact value in snake_case\n")
	sb.WriteString("   - confidence: your confidence in [0, 1]\n")
	sb.WriteString("   - evidence: the exact text span supporting the fact\n")
	fmt.Fprintf(&sb, "   - source_type: one of %s\n", joinSourceTypes())
	sb.WriteString("3. If the document states the current disease burden, report it as disease_status with one of: ")
	for i, s := range types.AllDiseaseStatuses() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(s.String())
	}
	sb.WriteString(".\n")
	sb.WriteString("4. If the document contains no extractable facts, return an empty facts array.\n")

	return sb.String()
}

// buildUserPrompt embeds the timeline context and the document text
func buildUserPrompt(input Input) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## Document\n\n")
	fmt.Fprintf(&sb, "- Date: %s\n", input.DocumentDate)
	if input.DocumentType != "" {
		fmt.Fprintf(&sb, "- Type: %s\n", input.DocumentType)
	}
	if input.Reason != "" {
		fmt.Fprintf(&sb, "- Selected because: %s\n", input.Reason)
	}
	sb.WriteString("\n")

	if input.Timeline != nil && len(input.Timeline.Events) > 0 {
		sb.WriteString("## Patient timeline context\n\n")
		for _, ev := range timelineExcerpt(input.Timeline, input.DocumentDate) {
			fmt.Fprintf(&sb, "- %s: %s", ev.Date, ev.Type)
			if ev.Category != "" {
				fmt.Fprintf(&sb, " (%s)", ev.Category)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Document text\n\n")
	sb.WriteString(input.Text)
	sb.WriteString("\n")

	return sb.String()
}

// buildClarificationPrompt asks the model to fix a specific defect in its
// previous answer
func buildClarificationPrompt(defect string) string {
	var sb strings.Builder

	sb.WriteString("Your previous response could not be used: ")
	sb.WriteString(defect)
	sb.WriteString("\n\nRespond again with the full corrected JSON object. Do not include any text outside the JSON.\n")

	return sb.String()
}

// timelineExcerpt keeps the prompt bounded: events within 90 days of the
// document date, capped at 20
func timelineExcerpt(tl *model.Timeline, around types.Date) []*model.Event {
	const (
		windowDays = 90
		maxEvents  = 20
	)

	var out []*model.Event
	for _, ev := range tl.Events {
		gap := types.DaysBetween(ev.Date, around)
		if gap < -windowDays || gap > windowDays {
			continue
		}
		out = append(out, ev)
		if len(out) >= maxEvents {
			break
		}
	}
	return out
}

func joinSourceTypes() string {
	var names []string
	for _, s := range types.AllFactSourceTypes() {
		names = append(names, s.String())
	}
	return strings.Join(names, ", ")
}

// buildResponseSchema creates the JSON schema for structured output
func buildResponseSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "ClinicalExtractionResponse",
		Description: "Structured facts extracted from one clinical document",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"facts": {
				Type:        gollem.TypeArray,
				Description: "Discrete clinical facts stated by the document",
				Items: &gollem.Parameter{
					Type: gollem.TypeObject,
					Properties: map[string]*gollem.Parameter{
						"subject": {
							Type:        gollem.TypeString,
							Description: "The event or entity the fact describes",
						},
						"name": {
							Type:        gollem.TypeString,
							Description: "snake_case fact name",
						},
						"value": {
							Type:        gollem.TypeString,
							Description: "snake_case fact value",
						},
						"confidence": {
							Type:        gollem.TypeNumber,
							Description: "Extraction confidence in [0, 1]",
						},
						"evidence": {
							Type:        gollem.TypeString,
							Description: "Exact text span supporting the fact",
						},
						"source_type": {
							Type:        gollem.TypeString,
							Description: "Document role for source-priority ranking",
						},
					},
					Required: []string{"subject", "name", "value", "confidence", "evidence", "source_type"},
				},
			},
			"disease_status": {
				Type:        gollem.TypeObject,
				Description: "Current disease burden if the document states it",
				Properties: map[string]*gollem.Parameter{
					"status": {
						Type:        gollem.TypeString,
						Description: "Disease burden status value",
					},
				},
				Required: []string{"status"},
			},
		},
		Required: []string{"facts"},
	}
}
