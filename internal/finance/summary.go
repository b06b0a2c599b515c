package finance

import (
	"sort"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

type StatusCount struct {
	Status schedule.Status `json:"status"`
	Count  int             `json:"count"`
}

type ProfessionalCount struct {
	ProfessionalID string `json:"professional_id"`
	Name           string `json:"name"`
	Count          int    `json:"count"`
}

// Summary is the all-time appointment breakdown shown on the admin
// dashboard.
type Summary struct {
	Total           int                 `json:"total"`
	ByStatus        []StatusCount       `json:"by_status"`
	PerProfessional []ProfessionalCount `json:"per_professional"`
}

func Summarize(s schedule.Schedule) Summary {
	statusCounts := make(map[schedule.Status]int, len(schedule.Statuses))
	profCounts := make(map[string]int, len(s.Professionals))
	for _, a := range s.Appointments {
		statusCounts[a.Status]++
		profCounts[a.ProfessionalID]++
	}

	out := Summary{Total: len(s.Appointments)}
	for _, st := range schedule.Statuses {
		out.ByStatus = append(out.ByStatus, StatusCount{Status: st, Count: statusCounts[st]})
	}
	for _, p := range s.Professionals {
		out.PerProfessional = append(out.PerProfessional, ProfessionalCount{
			ProfessionalID: p.ID,
			Name:           p.Name,
			Count:          profCounts[p.ID],
		})
	}
	sort.SliceStable(out.PerProfessional, func(i, j int) bool {
		return out.PerProfessional[i].Count > out.PerProfessional[j].Count
	})
	return out
}
