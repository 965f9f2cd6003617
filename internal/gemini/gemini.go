// SPDX-License-Identifier: Apache-2.0

// Package gemini serves the analysis functions in-process on top of the
// Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/compassoutlaw/rosetta/internal/evidence"
	"github.com/compassoutlaw/rosetta/internal/service"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = evidence.ModelIdentifier

// noContent is returned by the prompt functions when the model is silent.
const noContent = "No content generated"

// Generator produces a completion for a single prompt.
type Generator interface {
	// Generate sends prompt under the system instruction system, which may
	// be empty.
	Generate(ctx context.Context, system, prompt string, temperature float32) (string, error)
}

// GenAIGenerator is a Generator backed by google.golang.org/genai.
type GenAIGenerator struct {
	client *genai.Client
	model  string
}

// NewGenAIGenerator creates a Gemini API client for model.
func NewGenAIGenerator(ctx context.Context, apiKey, model string) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIGenerator{client: client, model: model}, nil
}

func (g *GenAIGenerator) Generate(ctx context.Context, system, prompt string, temperature float32) (string, error) {
	conf := &genai.GenerateContentConfig{Temperature: genai.Ptr(temperature)}
	if system != "" {
		conf.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), conf)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}

// Service implements service.Invoker for the rosetta-stone, intelligence,
// legal-strategy and glass-house functions.
type Service struct {
	gen    Generator
	logger *zap.Logger
}

// NewService returns a Service that prompts gen.
func NewService(gen Generator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gen: gen, logger: logger}
}

var _ service.Invoker = (*Service)(nil)

// Invoke dispatches a function call by name.
func (s *Service) Invoke(ctx context.Context, function string, payload any) (*service.Response, error) {
	switch function {
	case service.FunctionRosettaStone:
		var p service.ConversionPayload
		if err := remarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("%s payload: %w", function, err)
		}
		return s.convert(ctx, p)
	case service.FunctionIntelligence, service.FunctionLegalStrategy, service.FunctionGlassHouse:
		var p service.PromptPayload
		if err := remarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("%s payload: %w", function, err)
		}
		if p.Prompt == "" {
			return nil, &service.Error{Function: function, Status: 400, Message: "prompt is required"}
		}
		temperature := p.Temperature
		if temperature == 0 {
			temperature = defaultPromptTemperature
		}
		text, err := s.gen.Generate(ctx, systemPromptFor(function), p.Prompt, float32(temperature))
		if err != nil {
			return nil, &service.Error{Function: function, Status: 500, Message: "AI generation failed", Details: err.Error()}
		}
		if text == "" {
			text = noContent
		}
		return &service.Response{Kind: service.KindPartial, Text: text}, nil
	default:
		return nil, &service.Error{Function: function, Status: 404, Message: "unknown function"}
	}
}

// convert classifies the content and then converts it to the format its
// classification calls for.
func (s *Service) convert(ctx context.Context, p service.ConversionPayload) (*service.Response, error) {
	analysis, err := s.classify(ctx, p)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("content classified",
		zap.String("file", p.FileName),
		zap.String("classification", string(analysis.Classification)),
		zap.Float64("confidence", analysis.Confidence))

	resp := &service.Response{Kind: service.KindPartial, Analysis: &analysis}

	switch analysis.Classification {
	case evidence.ClassTabular:
		resp.Text = parquetNotice(p.FileName, analysis.Confidence, analysis.Reasoning, p.Content)

	case evidence.ClassHierarchical:
		reply, err := s.gen.Generate(ctx, "", jsonConversionPrompt(p.FileName, p.Content), jsonTemperature)
		if err != nil {
			return nil, fmt.Errorf("json conversion: %w", err)
		}
		data, schemaText := SplitSchema(reply)
		resp.Text = ExtractJSON(data)
		if resp.Text == "" {
			resp.Text = "{}"
		}
		if raw := ExtractJSON(schemaText); raw != "" {
			var schema map[string]any
			if err := json.Unmarshal([]byte(raw), &schema); err != nil {
				s.logger.Debug("inferred schema unparseable", zap.Error(err))
			} else {
				resp.JSONSchema = schema
			}
		}

	default:
		reply, err := s.gen.Generate(ctx, "", markdownConversionPrompt(p.FileName, p.Content), markdownTemperature)
		if err != nil {
			return nil, fmt.Errorf("markdown conversion: %w", err)
		}
		resp.Text = reply
	}

	return resp, nil
}

// parseFallback is used when the classification reply cannot be parsed.
var parseFallback = evidence.Analysis{Classification: evidence.ClassProse, Confidence: 50, Reasoning: "Parse fallback"}

func (s *Service) classify(ctx context.Context, p service.ConversionPayload) (evidence.Analysis, error) {
	reply, err := s.gen.Generate(ctx, "", classificationPrompt(p.FileName, p.MimeType, p.Content), classifyTemperature)
	if err != nil {
		return evidence.Analysis{}, fmt.Errorf("classification: %w", err)
	}

	raw := ExtractJSON(reply)
	if raw == "" {
		return parseFallback, nil
	}
	var a evidence.Analysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		s.logger.Debug("classification reply unparseable", zap.Error(err))
		return parseFallback, nil
	}
	a.Classification = evidence.ParseClassification(string(a.Classification))
	return a, nil
}

// remarshal converts a payload of any JSON-compatible shape into out.
func remarshal(in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
