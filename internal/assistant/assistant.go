// Package assistant revises the clinic schedule from free-text instructions
// with a generative model.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
	"github.com/hackgods/clinic-scheduling/pkg/logging"
)

// ErrNoResult means the model answered with nothing usable.
var ErrNoResult = errors.New("assistant returned no usable schedule")

type ScheduleAssistant struct {
	gen    Generator
	now    func() time.Time
	logger *logging.Logger
}

func New(gen Generator, logger *logging.Logger) *ScheduleAssistant {
	return &ScheduleAssistant{
		gen:    gen,
		now:    time.Now,
		logger: logger.WithComponent("assistant"),
	}
}

// Revise returns the full schedule the model proposes after applying
// instruction to current. The answer is only decoded here; validating it
// is up to the caller.
func (a *ScheduleAssistant) Revise(ctx context.Context, instruction string, current schedule.Schedule) (schedule.Schedule, error) {
	prompt, err := buildPrompt(instruction, current, a.now())
	if err != nil {
		return schedule.Schedule{}, err
	}

	text, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		a.logger.Error("assistant request failed", "error", err)
		return schedule.Schedule{}, fmt.Errorf("%w: %v", ErrNoResult, err)
	}

	text = stripFences(text)
	if text == "" {
		a.logger.Warn("assistant returned an empty answer")
		return schedule.Schedule{}, ErrNoResult
	}

	revised, err := schedule.Unmarshal([]byte(text))
	if err != nil {
		a.logger.Warn("assistant answer is not a schedule", "error", err)
		return schedule.Schedule{}, fmt.Errorf("%w: %v", ErrNoResult, err)
	}

	a.logger.Info("assistant proposed a schedule",
		"professionals", len(revised.Professionals),
		"appointments", len(revised.Appointments),
	)
	return revised, nil
}

func buildPrompt(instruction string, current schedule.Schedule, now time.Time) (string, error) {
	doc, err := schedule.Marshal(current)
	if err != nil {
		return "", fmt.Errorf("encode current schedule: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are an assistant that manages the schedule of a medical clinic.\n")
	b.WriteString("Read the user's request and the current schedule, then return the COMPLETE updated schedule as a JSON object.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Always return the whole schedule: professionals, patients and appointments.\n")
	b.WriteString("- New appointments and patients get a new unique id (for example appt_new_1, pat_new_1).\n")
	b.WriteString("- When a new patient is booked, add them to the patients list and use the name from the request as the appointment's patientName.\n")
	fmt.Fprintf(&b, "- Dates and times are strings of milliseconds since the Unix epoch. The current time is %s.\n", now.UTC().Format(time.RFC3339))
	b.WriteString("- A new appointment has status \"scheduled\".\n")
	b.WriteString("- To edit a professional, change the matching professional object.\n")
	b.WriteString("- To change an appointment status, find the appointment and update its status field.\n")
	b.WriteString("- Do not include any explanation, only the JSON object.\n\n")
	b.WriteString("Current schedule:\n")
	b.Write(doc)
	b.WriteString("\n\nUser request:\n")
	fmt.Fprintf(&b, "%q\n\n", strings.TrimSpace(instruction))
	b.WriteString("Return the updated schedule JSON:\n")
	return b.String(), nil
}

// stripFences drops a surrounding markdown code block, which models add
// now and then even in JSON mode.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = ""
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
