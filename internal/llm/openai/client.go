package openai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	oai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/mediscan/internal/common"
	"github.com/joseph-ayodele/mediscan/internal/entity"
	"github.com/joseph-ayodele/mediscan/internal/llm"
)

// ExtractRecord implements llm.RecordExtractor with a single vision call.
// Every failure is returned as an ExtractionError; there are no retries.
func (c *Client) ExtractRecord(ctx context.Context, req llm.ExtractRequest) (entity.PrescriptionRecord, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	if !c.Configured() {
		c.logger.Warn("llm.extract.not_configured", "req_id", rid)
		return entity.PrescriptionRecord{}, nil, common.ExtractionError("vision model API key is not configured", common.ErrNotConfigured)
	}

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"partial", c.cfg.Partial,
		"image", req.ImagePath,
	)

	dataURL, err := llm.ReadAsDataURL(req.ImagePath, req.MimeType)
	if err != nil {
		c.logger.Error("llm.extract.read_image_error", "req_id", rid, "error", err)
		return entity.PrescriptionRecord{}, nil, common.ExtractionError("read image", err)
	}

	contract := llm.BuildPrescriptionJSONSchema(!c.cfg.Partial)
	wire, err := json.Marshal(llm.StrictWireSchema(llm.BuildPrescriptionJSONSchema(true)))
	if err != nil {
		return entity.PrescriptionRecord{}, nil, common.ExtractionError("marshal schema", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, oai.ChatCompletionRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		Messages: []oai.ChatCompletionMessage{
			{Role: oai.ChatMessageRoleSystem, Content: llm.VisionSystemPrompt},
			{
				Role: oai.ChatMessageRoleUser,
				MultiContent: []oai.ChatMessagePart{
					{Type: oai.ChatMessagePartTypeText, Text: llm.VisionUserPrompt},
					{Type: oai.ChatMessagePartTypeImageURL, ImageURL: &oai.ChatMessageImageURL{
						URL:    dataURL,
						Detail: oai.ImageURLDetailHigh,
					}},
				},
			},
		},
		ResponseFormat: &oai.ChatCompletionResponseFormat{
			Type: oai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &oai.ChatCompletionResponseFormatJSONSchema{
				Name:   llm.SchemaName,
				Schema: json.RawMessage(wire),
				Strict: true,
			},
		},
	})
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		var apiErr *oai.APIError
		if errors.As(err, &apiErr) && (apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403) {
			return entity.PrescriptionRecord{}, nil, common.ExtractionError("vision model rejected the API key", errors.Join(common.ErrNotConfigured, err))
		}
		return entity.PrescriptionRecord{}, nil, common.ExtractionError("vision model request failed", err)
	}
	if len(resp.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return entity.PrescriptionRecord{}, nil, common.ExtractionError("no choices in model response", nil)
	}
	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		c.logger.Warn("llm.extract.refused", "req_id", rid, "refusal", choice.Message.Refusal)
		return entity.PrescriptionRecord{}, nil, common.ExtractionError("model refused: "+choice.Message.Refusal, nil)
	}
	rawContent := []byte(strings.TrimSpace(choice.Message.Content))

	cleaned, _, err := llm.NormalizeAndSanitizeJSON(rawContent, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.decode_error", "req_id", rid, "error", err, "content", string(rawContent))
		return entity.PrescriptionRecord{}, rawContent, common.ExtractionError("model returned invalid JSON", err)
	}
	if err := llm.ValidateJSONAgainstSchema(contract, cleaned); err != nil {
		c.logger.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err, "content", string(rawContent),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.PrescriptionRecord{}, rawContent, common.ExtractionError("schema validation failed", err)
	}

	var out entity.PrescriptionRecord
	if err := json.Unmarshal(cleaned, &out); err != nil {
		c.logger.Error("llm.extract.unmarshal_failed", "req_id", rid, "error", err)
		return entity.PrescriptionRecord{}, rawContent, common.ExtractionError("unmarshal record", err)
	}
	if out.Medications == nil {
		out.Medications = []entity.Medication{}
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"has_patient", out.PatientName != "",
		"medications", len(out.Medications),
		"finish_reason", choice.FinishReason,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, cleaned, nil
}

var _ llm.RecordExtractor = (*Client)(nil)
