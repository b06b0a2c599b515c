package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
	"github.com/hackgods/clinic-scheduling/pkg/logging"
)

type fakeGenerator struct {
	answer string
	err    error
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.answer, f.err
}

var fixedNow = time.Date(2024, time.June, 2, 8, 0, 0, 0, time.UTC)

func newAssistant(gen Generator) *ScheduleAssistant {
	a := New(gen, logging.Discard())
	a.now = func() time.Time { return fixedNow }
	return a
}

const revisedDoc = `{
  "professionals": [{"id": "prof_1", "name": "Dra. Ana Silva", "specialty": "Cardiology"}],
  "patients": [{"id": "pat_new_1", "name": "Juliana Paes"}],
  "appointments": [{
    "id": "appt_new_1", "professionalId": "prof_1", "patientId": "pat_new_1",
    "patientName": "Juliana Paes", "start": "1717405200000", "end": "1717407900000",
    "status": "agendado", "price": 250
  }]
}`

func TestRevise_DecodesAnswer(t *testing.T) {
	gen := &fakeGenerator{answer: revisedDoc}
	current := *schedule.Default(fixedNow, time.UTC)

	got, err := newAssistant(gen).Revise(context.Background(), "book Juliana Paes with Dra. Ana on Monday at 9", current)
	require.NoError(t, err)

	require.Len(t, got.Appointments, 1)
	appt := got.Appointments[0]
	assert.Equal(t, schedule.StatusScheduled, appt.Status)
	assert.Equal(t, int64(1717405200000), appt.Start.UnixMilli())
	assert.Equal(t, 45*time.Minute, appt.End.Sub(appt.Start))

	assert.Contains(t, gen.prompt, `"book Juliana Paes with Dra. Ana on Monday at 9"`)
	assert.Contains(t, gen.prompt, "2024-06-02T08:00:00Z")
	assert.Contains(t, gen.prompt, `"id":"appt_5"`)
}

func TestRevise_StripsCodeFences(t *testing.T) {
	gen := &fakeGenerator{answer: "```json\n" + revisedDoc + "\n```"}

	got, err := newAssistant(gen).Revise(context.Background(), "x", schedule.Schedule{})
	require.NoError(t, err)
	assert.Len(t, got.Patients, 1)
}

func TestRevise_Failures(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"transport error", &fakeGenerator{err: errors.New("quota exceeded")}},
		{"empty answer", &fakeGenerator{answer: "  "}},
		{"not json", &fakeGenerator{answer: "Sure! I booked it."}},
		{"bad timestamp", &fakeGenerator{answer: `{"appointments":[{"id":"a","start":"tomorrow","end":"later"}]}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newAssistant(tt.gen).Revise(context.Background(), "x", schedule.Schedule{})
			assert.ErrorIs(t, err, ErrNoResult)
		})
	}
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripFences(" {\"a\":1} "))
	assert.Equal(t, "", stripFences("```"))
}

func TestScheduleSchema_RequiresTopLevelLists(t *testing.T) {
	s := scheduleSchema()
	assert.ElementsMatch(t, []string{"professionals", "patients", "appointments"}, s.Required)
	assert.Equal(t, []string{"scheduled", "confirmed", "completed", "cancelled"},
		s.Properties["appointments"].Items.Properties["status"].Enum)
}
