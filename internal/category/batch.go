package category

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"flowsense/internal/logger"
)

// BatchSize caps how many apps one categorization request may cover.
const BatchSize = 10

// Generator is the text-generation surface the categorizer needs.
type Generator interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
}

// Categorizer runs the background categorization pass: it drains small
// batches of unresolved apps through the text-generation backend and
// persists the results with auto origin. Failures are logged and left
// pending for the next pass.
type Categorizer struct {
	resolver  *Resolver
	generator Generator
}

func NewCategorizer(resolver *Resolver, generator Generator) *Categorizer {
	return &Categorizer{resolver: resolver, generator: generator}
}

type categorization struct {
	Category          string `json:"category"`
	Subcategory       string `json:"subcategory"`
	ProductivityScore int    `json:"productivity_score"`
}

// Run performs one categorization pass. It is safe to re-run: apps that
// fail stay pending and nothing user-assigned is touched.
func (c *Categorizer) Run(ctx context.Context) {
	if c.generator == nil {
		return
	}

	apps := c.resolver.PendingApps(BatchSize)
	if len(apps) == 0 {
		return
	}

	response, err := c.generator.Generate(ctx, categorizationPrompt(apps), categorizationSystem)
	if err != nil {
		logger.GetLogger().Warnf("App categorization request failed, will retry: %v", err)
		return
	}

	results, err := parseCategorizations(response)
	if err != nil {
		logger.GetLogger().Warnf("App categorization response unusable, will retry: %v", err)
		return
	}

	applied := 0
	for app, cat := range results {
		score := cat.ProductivityScore
		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}
		category := cat.Category
		if category == "" {
			category = "uncategorized"
		}
		c.resolver.applyAuto(app, category, cat.Subcategory, score)
		applied++
	}
	logger.GetLogger().Infof("Categorized %d of %d pending apps", applied, len(apps))
}

const categorizationSystem = "You are a software categorization assistant. Respond with JSON only, no explanations."

func categorizationPrompt(apps []string) string {
	var b strings.Builder
	b.WriteString("Categorize these desktop applications for productivity tracking.\n")
	b.WriteString("Applications: ")
	b.WriteString(strings.Join(apps, ", "))
	b.WriteString("\n\nReturn a JSON object mapping each application name to ")
	b.WriteString(`{"category": string, "subcategory": string, "productivity_score": 0-100}.`)
	b.WriteString("\nCategories: development, productivity, communication, entertainment, system.")
	return b.String()
}

// parseCategorizations decodes the backend's JSON mapping, tolerating
// decorative text around the object.
func parseCategorizations(text string) (map[string]categorization, error) {
	cleaned := strings.TrimSpace(text)

	var results map[string]categorization
	if err := json.Unmarshal([]byte(cleaned), &results); err == nil {
		return results, nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &results); err != nil {
		return nil, fmt.Errorf("failed to decode categorization response: %w", err)
	}
	return results, nil
}
