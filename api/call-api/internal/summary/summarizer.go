// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_summary

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pkoukk/tiktoken-go"

	"github.com/expertdial/config"
	"github.com/expertdial/pkg/commons"
)

const (
	// FailedSummary is returned when the completion call fails. A failed
	// summarization degrades, it never propagates into call teardown.
	FailedSummary = "error generating summary"

	summarySystemPrompt = "You are a helpful assistant that creates concise summaries of conversations. " +
		"Focus on the key points discussed and any actions or conclusions reached."

	summaryTemperature = 0.7
	summaryMaxTokens   = 300
	transcriptTokenCap = 6000
	tokenizerEncoding  = "cl100k_base"
	summaryUserIntro   = "Please provide a summary of this conversation: "
)

// Result pairs the verbatim transcript with its generated summary.
type Result struct {
	Transcript string
	Summary    string
}

// CompletionClient is the language-model dependency of the summarizer.
type CompletionClient interface {
	Complete(ctx context.Context, systemPrompt, userContent string) (string, error)
}

type openaiCompletion struct {
	client openai.Client
	model  string
}

// NewOpenAICompletion builds the chat-completions client used for
// summaries.
func NewOpenAICompletion(cfg config.OpenAIConfig) CompletionClient {
	return &openaiCompletion{
		client: openai.NewClient(option.WithAPIKey(cfg.ApiKey)),
		model:  cfg.SummaryModel,
	}
}

func (c *openaiCompletion) Complete(ctx context.Context, systemPrompt, userContent string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userContent),
		},
		Temperature: openai.Float(summaryTemperature),
		MaxTokens:   openai.Int(summaryMaxTokens),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Summarizer turns an accumulated call transcript into a short summary.
type Summarizer struct {
	logger      commons.Logger
	completions CompletionClient
	tokenizer   *tiktoken.Tiktoken
}

// NewSummarizer wires the summarizer. The tokenizer bounds transcript
// length before the completion call so marathon calls cannot blow the
// model context. If the encoding assets cannot be loaded the summarizer
// still works, just without truncation.
func NewSummarizer(logger commons.Logger, completions CompletionClient) *Summarizer {
	enc, err := tiktoken.GetEncoding(tokenizerEncoding)
	if err != nil {
		logger.Warnf("tokenizer unavailable, transcripts will not be truncated: %v", err)
		enc = nil
	}
	return &Summarizer{
		logger:      logger,
		completions: completions,
		tokenizer:   enc,
	}
}

// Summarize generates a summary for the transcript. It never returns an
// error: any completion failure degrades to FailedSummary with the
// transcript unchanged, because summarization sits on the call-teardown
// path and must not crash it.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) Result {
	bounded := s.truncate(transcript)

	summary, err := s.completions.Complete(ctx, summarySystemPrompt, summaryUserIntro+bounded)
	if err != nil {
		s.logger.Errorf("summary generation failed: %v", err)
		return Result{Transcript: transcript, Summary: FailedSummary}
	}

	return Result{Transcript: transcript, Summary: summary}
}

// truncate caps the transcript at the token budget, keeping the head of
// the conversation.
func (s *Summarizer) truncate(transcript string) string {
	if s.tokenizer == nil {
		return transcript
	}
	tokens := s.tokenizer.Encode(transcript, nil, nil)
	if len(tokens) <= transcriptTokenCap {
		return transcript
	}
	s.logger.Warnf("transcript exceeds token budget (%d > %d), truncating", len(tokens), transcriptTokenCap)
	return s.tokenizer.Decode(tokens[:transcriptTokenCap])
}
