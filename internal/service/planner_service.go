package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/horaplan/backend/internal/genai"
	"github.com/horaplan/backend/internal/models"
	apierrors "github.com/horaplan/backend/internal/pkg/errors"
	"github.com/horaplan/backend/internal/repository"
)

// Reference week used as the weekly template scaffold: an arbitrary, fixed
// Monday-to-Sunday range the frontend maps onto real weeks.
const (
	referenceWeekStart = "2024-01-01" // Monday
	referenceWeekEnd   = "2024-01-07" // Sunday
)

// PlannerService builds weekly schedules and critiques existing ones by
// delegating to an external generative model. It holds no scheduling logic
// of its own.
type PlannerService interface {
	// Generate produces a one-week event template from the user's
	// activities and their preferred daily hour window.
	Generate(ctx context.Context, req GenerateRequest) ([]models.Event, error)

	// Analyze returns improvement suggestions for an existing event list.
	Analyze(ctx context.Context, events []models.Event) ([]string, error)
}

// GenerateRequest carries the preferences for schedule generation.
type GenerateRequest struct {
	OwnerID   uuid.UUID `json:"-"`
	StartHour int       `json:"start_hour" validate:"min=0,max=23"`
	EndHour   int       `json:"end_hour" validate:"min=1,max=24"`
}

type plannerService struct {
	activityRepo repository.ActivityRepository
	generator    genai.Generator
}

// NewPlannerService creates a new planner service.
func NewPlannerService(activityRepo repository.ActivityRepository, generator genai.Generator) PlannerService {
	return &plannerService{activityRepo: activityRepo, generator: generator}
}

// Generate formats the user's activities into a prompt, asks the model for
// a placed week, and parses the response. A user with no activities gets an
// empty template without any model call.
func (s *plannerService) Generate(ctx context.Context, req GenerateRequest) ([]models.Event, error) {
	activities, err := s.activityRepo.ListByOwner(ctx, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	if len(activities) == 0 {
		return []models.Event{}, nil
	}

	prompt := buildGenerationPrompt(activities, req.StartHour, req.EndHour)

	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, apierrors.ErrUpstream.WithMessage("The AI service is unavailable")
	}

	cleaned := StripCodeFence(raw)
	if cleaned == "" {
		return nil, apierrors.NewUpstreamError("The AI service returned an empty response")
	}

	var events []models.Event
	if err := json.Unmarshal([]byte(cleaned), &events); err != nil {
		return nil, apierrors.NewUpstreamError("The AI service returned malformed JSON")
	}
	return events, nil
}

func buildGenerationPrompt(activities []*models.Activity, startHour, endHour int) string {
	var b strings.Builder
	b.WriteString("You are a productivity expert. Create the ideal, repeatable weekly schedule template for a user, Monday through Sunday. ")
	fmt.Fprintf(&b, "Each day runs from %d:00 to %d:00. ", startHour, endHour)
	b.WriteString("Assign the following activities to the most sensible days and times to maximize productivity and well-being. ")
	fmt.Fprintf(&b, "For dates, use a generic week starting on Monday: '%s' (Monday) through '%s' (Sunday).\n\n", referenceWeekStart, referenceWeekEnd)
	b.WriteString("The user's activities:\n")

	for _, act := range activities {
		fmt.Fprintf(&b, "- Task: %s, Duration: %d minutes, Priority: %s, Category: %s", act.Name, act.DurationMinutes, act.Priority, act.Category)
		if act.Frequency != nil && *act.Frequency != "" {
			fmt.Fprintf(&b, ", Frequency: %s", *act.Frequency)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nReturn ONLY a JSON array of objects. Each object must have 'title', 'start', 'end' and 'category'. ")
	fmt.Fprintf(&b, "Timestamps must use the format 'YYYY-MM-DDTHH:MM:SS' and fall within the generic week %s to %s. Do not add any extra text.", referenceWeekStart, referenceWeekEnd)

	return b.String()
}

// annotatedEvent is an event plus its computed day-of-week, as shown to the
// model during analysis.
type annotatedEvent struct {
	models.Event
	Day string `json:"day"`
}

// Analyze annotates each event with its weekday, asks the model for
// suggestions, and parses the response. Events whose start timestamp does
// not parse are dropped from the analysis rather than failing the request.
func (s *plannerService) Analyze(ctx context.Context, events []models.Event) ([]string, error) {
	annotated := annotateEvents(events)

	prompt, err := buildAnalysisPrompt(annotated)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, apierrors.ErrUpstream.WithMessage("The AI service is unavailable")
	}

	cleaned := StripCodeFence(raw)
	if cleaned == "" {
		return nil, apierrors.NewUpstreamError("The AI service returned an empty response")
	}

	var parsed struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, apierrors.NewUpstreamError("The AI service returned malformed JSON")
	}
	if parsed.Suggestions == nil {
		return nil, apierrors.NewUpstreamError("The AI service response is missing suggestions")
	}
	return parsed.Suggestions, nil
}

func annotateEvents(events []models.Event) []annotatedEvent {
	annotated := make([]annotatedEvent, 0, len(events))
	for _, ev := range events {
		start, err := time.Parse(models.EventTimeLayout, ev.Start)
		if err != nil {
			continue
		}
		annotated = append(annotated, annotatedEvent{Event: ev, Day: start.Weekday().String()})
	}
	return annotated
}

func buildAnalysisPrompt(events []annotatedEvent) (string, error) {
	encoded, err := json.Marshal(events)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("You are a productivity expert. Review the following weekly schedule and suggest concrete improvements for balance, focus and rest.\n\n")
	b.WriteString("The schedule's events, annotated with their day of week:\n")
	b.Write(encoded)
	b.WriteString("\n\nReturn ONLY a JSON object of the form {\"suggestions\": [\"...\"]} where each entry is one short, actionable suggestion. Do not add any extra text.")
	return b.String(), nil
}

// StripCodeFence removes an optional Markdown code fence wrapped around a
// model response, so the remainder can be treated as JSON.
func StripCodeFence(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = cleaned[len("```json"):]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[len("```"):]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}
