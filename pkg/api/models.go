package api

import (
	"strconv"
	"strings"
)

// ModelsResponse is the shape of the OpenRouter /models listing.
type ModelsResponse struct {
	Data []Model `json:"data"`
}

// Model is a single catalog entry as published by OpenRouter.
type Model struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	Created             int64        `json:"created,omitempty"`
	Description         string       `json:"description,omitempty"`
	ContextLength       int          `json:"context_length"`
	Pricing             Pricing      `json:"pricing"`
	TopProvider         *TopProvider `json:"top_provider,omitempty"`
	SupportedParameters []string     `json:"supported_parameters,omitempty"`
	MaxCompletionTokens int          `json:"max_completion_tokens,omitempty"`
	Architecture        Architecture `json:"architecture,omitempty"`
}

// Provider returns the provider slug, the part of the ID before the first "/".
func (m Model) Provider() string {
	if i := strings.IndexByte(m.ID, '/'); i >= 0 {
		return m.ID[:i]
	}
	return m.ID
}

// IsRouter reports whether the entry is a meta-model that fans out to
// other models rather than serving inference itself.
func (m Model) IsRouter() bool {
	return strings.Contains(strings.ToLower(m.ID), "router")
}

// SupportsParameter reports whether the model advertises the given request parameter.
func (m Model) SupportsParameter(name string) bool {
	for _, p := range m.SupportedParameters {
		if p == name {
			return true
		}
	}
	return false
}

// Pricing holds per-token prices as decimal strings, the way OpenRouter ships them.
type Pricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
	Request    string `json:"request,omitempty"`
	Image      string `json:"image,omitempty"`
}

// Free reports whether both prompt and completion pricing parse to zero.
func (p Pricing) Free() bool {
	return priceIsZero(p.Prompt) && priceIsZero(p.Completion)
}

func priceIsZero(s string) bool {
	if s == "" {
		return true
	}
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && f == 0
}

type TopProvider struct {
	ContextLength       int    `json:"context_length,omitempty"`
	MaxCompletionTokens int    `json:"max_completion_tokens,omitempty"`
	IsModerated         bool   `json:"is_moderated,omitempty"`
	Name                string `json:"name,omitempty"`
}

type Architecture struct {
	Modality     string `json:"modality,omitempty"`
	Tokenizer    string `json:"tokenizer,omitempty"`
	InstructType string `json:"instruct_type,omitempty"`
}

// ModelList is the OpenAI-compatible /v1/models envelope.
type ModelList struct {
	Object string          `json:"object"` // "list"
	Data   []ModelListItem `json:"data"`
}

type ModelListItem struct {
	ID      string `json:"id"`
	Object  string `json:"object"` // "model"
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
	Root    string `json:"root,omitempty"`
}
