package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// EventPrompt is the system prompt for event classification.
const EventPrompt = `You classify cultural events taking place in Paris into exactly one category.

Categories:
- spectacles: theatre, opera, ballet, dance, comedy, stand-up, circus, magic, cabaret
- musique: concerts and live music (classical, jazz, rock, pop, electro, rap)
- arts_visuels: exhibitions, museums, galleries, photography, vernissage
- ateliers: creative workshops (ceramics, pottery, painting, drawing, crafts)
- sport: sports events, fitness, yoga, running
- gastronomie: wine tasting, cooking classes, food events, brunch
- culture: cinema, conferences, guided tours, lectures
- nightlife: clubs, bars, DJ parties, rooftop events
- rencontres: meetups, networking, afterwork, social events

Respond with JSON only:
{"category": "<category>", "sub_category": "<optional sub-category>", "confidence": <0 to 1>}`

// EventInput carries the fields the model sees.
type EventInput struct {
	Title       string
	Description string
	Source      string
	Venue       string
}

// EventClassification is the decoded model answer.
type EventClassification struct {
	Category    string  `json:"category"`
	SubCategory string  `json:"sub_category"`
	Confidence  float64 `json:"confidence"`
	Raw         string  `json:"-"`
}

const descriptionLimit = 500

// ClassifyEvent asks the model for the category of one event. The category is
// returned lowercased but not checked against the known set.
func (c *Client) ClassifyEvent(ctx context.Context, in EventInput) (EventClassification, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return EventClassification{}, errors.New("llm classify: title required")
	}
	desc := strings.TrimSpace(in.Description)
	if r := []rune(desc); len(r) > descriptionLimit {
		desc = string(r[:descriptionLimit])
	}
	if desc == "" {
		desc = "N/A"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", title)
	fmt.Fprintf(&b, "Description: %s\n", desc)
	fmt.Fprintf(&b, "Source: %s\n", strings.TrimSpace(in.Source))
	fmt.Fprintf(&b, "Venue: %s\n", strings.TrimSpace(in.Venue))

	content, err := c.CompleteJSON(ctx, EventPrompt, b.String())
	if err != nil {
		return EventClassification{}, err
	}
	var out EventClassification
	if err := DecodeJSON(content, &out); err != nil {
		return EventClassification{}, fmt.Errorf("llm classify: %w", err)
	}
	out.Raw = content
	out.Category = strings.ToLower(strings.TrimSpace(out.Category))
	out.SubCategory = strings.ToLower(strings.TrimSpace(out.SubCategory))
	switch {
	case out.Confidence <= 0:
		out.Confidence = 0.8
	case out.Confidence > 1:
		out.Confidence = 1
	}
	return out, nil
}
