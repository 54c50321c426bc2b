package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"leadprep/models"
	"leadprep/storage"
	"leadprep/utils"
)

const topCompanies = 5

type SummaryService struct {
	store  storage.Store
	logger *utils.Logger
}

func NewSummaryService(store storage.Store, logger *utils.Logger) *SummaryService {
	return &SummaryService{store: store, logger: logger}
}

// Summarize reads a cleaned file and computes its breakdown.
func (s *SummaryService) Summarize(ctx context.Context, key string) (*models.FileSummary, error) {
	t, err := s.store.Read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	sum := s.Generate(t)
	sum.Name = key
	return sum, nil
}

func (s *SummaryService) Generate(t *models.Table) *models.FileSummary {
	sum := &models.FileSummary{
		ContactsByState: make(map[string]int),
	}
	if len(t.Records) == 0 {
		return sum
	}

	sum.TotalContacts = len(t.Records)
	perCompany := make(map[string]int)

	for i := range t.Records {
		row := t.RowMap(i)
		if row[models.ColFirstName] != "" {
			sum.WithFirstName++
		}
		if row[models.ColPhone] != "" {
			sum.WithPhone++
		}
		if state := strings.TrimSpace(row[models.ColState]); state != "" {
			sum.ContactsByState[state]++
		}
		if name := strings.TrimSpace(row[models.ColCompanyName]); name != "" {
			perCompany[name]++
		}
	}
	sum.Companies = len(perCompany)

	for name, n := range perCompany {
		sum.TopCompanies = append(sum.TopCompanies, models.CompanyCount{Company: name, Contacts: n})
	}
	sort.Slice(sum.TopCompanies, func(i, j int) bool {
		a, b := sum.TopCompanies[i], sum.TopCompanies[j]
		if a.Contacts != b.Contacts {
			return a.Contacts > b.Contacts
		}
		return a.Company < b.Company
	})
	if len(sum.TopCompanies) > topCompanies {
		sum.TopCompanies = sum.TopCompanies[:topCompanies]
	}

	return sum
}

func (s *SummaryService) Print(w io.Writer, r *models.FileSummary) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 %s\033[0m\n", r.Name)
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Contacts        : \033[1m%d\033[0m\n", r.TotalContacts)
	fmt.Fprintf(w, "  Companies       : \033[1m%d\033[0m\n", r.Companies)
	fmt.Fprintf(w, "  With first name : \033[1m%d\033[0m (%s)\n", r.WithFirstName, percent(r.WithFirstName, r.TotalContacts))
	fmt.Fprintf(w, "  With phone      : \033[1m%d\033[0m (%s)\n", r.WithPhone, percent(r.WithPhone, r.TotalContacts))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Top Companies by Contacts\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopCompanies) == 0 {
		fmt.Fprintf(w, "  No companies found\n")
	} else {
		for i, c := range r.TopCompanies {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-40s \033[1;32m%d\033[0m\n", i+1, truncate(c.Company, 38), c.Contacts)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Contacts by State\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ContactsByState) == 0 {
		fmt.Fprintf(w, "  No state data\n")
	} else {
		type stateCount struct {
			state string
			count int
		}
		var states []stateCount
		for st, n := range r.ContactsByState {
			states = append(states, stateCount{st, n})
		}
		sort.Slice(states, func(i, j int) bool {
			if states[i].count != states[j].count {
				return states[i].count > states[j].count
			}
			return states[i].state < states[j].state
		})
		for _, sc := range states {
			bar := strings.Repeat("█", min(sc.count, 40))
			fmt.Fprintf(w, "  %-20s %s (%d)\n", truncate(sc.state, 18), bar, sc.count)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func percent(part, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", float64(part)*100/float64(total))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
