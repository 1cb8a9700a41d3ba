package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tskpay-backend/internal/models"
)

// OverdueStatements renders a plain-text reminder per parent with at least
// one overdue cost and an email address on file. The text is in Slovenian,
// matching what the club sends out. Remaining amounts after partial
// allocations are not used here; a pending cost is dunned at face value.
func (s *Service) OverdueStatements(ctx context.Context) (string, error) {
	parents, err := s.store.Parents(ctx)
	if err != nil {
		return "", err
	}
	members, err := s.store.Members(ctx)
	if err != nil {
		return "", err
	}
	costs, err := s.store.Costs(ctx)
	if err != nil {
		return "", err
	}

	today := s.now().Truncate(24 * time.Hour)
	var out strings.Builder
	for i := range parents {
		statement := s.statementFor(&parents[i], members, costs, today)
		out.WriteString(statement)
	}

	if out.Len() == 0 {
		return "Ni staršev s prekoračenimi stroški in email naslovom.\n", nil
	}
	return out.String(), nil
}

func (s *Service) statementFor(parent *models.Parent, members []models.Member, costs []models.Cost, today time.Time) string {
	if strings.TrimSpace(parent.Email) == "" {
		return ""
	}

	var own []models.Member
	for _, m := range members {
		if m.HasParent(parent.ID) {
			own = append(own, m)
		}
	}
	if len(own) == 0 {
		return ""
	}

	overdueByMember := make(map[string][]models.Cost)
	total := 0.0
	for _, c := range costs {
		if c.Status != models.CostPending || c.IsTemplate() || c.DueDate == nil || !c.DueDate.Before(today) {
			continue
		}
		for _, m := range own {
			if m.ID == c.MemberID {
				overdueByMember[m.ID.String()] = append(overdueByMember[m.ID.String()], c)
				total += c.Amount
				break
			}
		}
	}
	if len(overdueByMember) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Spoštovani/na %s %s,\n\n", parent.FirstName, parent.LastName)
	b.WriteString("pošiljamo vam obvestilo o odprtih obveznostih za vaše člane:\n\n")

	for _, m := range own {
		memberCosts := overdueByMember[m.ID.String()]
		if len(memberCosts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s %s:\n", m.FirstName, m.LastName)
		for _, c := range memberCosts {
			fmt.Fprintf(&b, "  - %s: %.2f € (rok: %s - PREKORAČEN)\n",
				c.Title, c.Amount, formatDueDate(c.DueDate))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Skupni znesek odprtih obveznosti: %.2f €\n\n", total)
	b.WriteString("Prosimo vas, da obveznosti poravnate v najkrajšem možnem času.\n\n")
	b.WriteString("Lep pozdrav,\n")
	b.WriteString("TSK JUB Dol\n\n")
	b.WriteString("---\n")
	fmt.Fprintf(&b, "Email naslov: %s\n\n\n", parent.Email)
	return b.String()
}

func formatDueDate(t *time.Time) string {
	if t == nil {
		return "Ni roka"
	}
	return t.Format("2. 1. 2006")
}
