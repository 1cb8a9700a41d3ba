// Package matching assigns a probable payer to an imported bank transaction.
// The heuristics are an ordered rule list evaluated front to back; the first
// rule that fires wins. The order encodes a precision tradeoff: exact and
// structured signals (account id, payer-name field) run before free-text
// description heuristics, so the rule sequence must not be reordered.
package matching

import (
	"strings"

	"github.com/google/uuid"

	"tskpay-backend/internal/models"
)

// Candidate carries the transaction fields the matcher inspects.
type Candidate struct {
	PayerName   string
	PayerIBAN   string
	Description string
}

// Result is the match outcome. ParentID and MemberID are nil when
// Confidence is ConfidenceNone.
type Result struct {
	ParentID   *uuid.UUID
	MemberID   *uuid.UUID
	Confidence models.MatchConfidence
	Reason     string
}

type rule func(c candidate, parents []models.Parent, members []models.Member) *Result

// rules run in fixed priority order; see the package comment.
var rules = []rule{
	matchByIBAN,
	matchByPayerFullName,
	matchByPayerLastName,
	matchByMemberInDescription,
	matchByLastNameInDescription,
}

type candidate struct {
	payerName   string
	payerIBAN   string
	description string
}

// Match never fails; an unmatchable transaction yields ConfidenceNone.
func Match(c Candidate, parents []models.Parent, members []models.Member) Result {
	in := candidate{
		payerName:   normalize(c.PayerName),
		payerIBAN:   stripSpaces(c.PayerIBAN),
		description: normalize(c.Description),
	}
	for _, r := range rules {
		if res := r(in, parents, members); res != nil {
			return *res
		}
	}
	return Result{Confidence: models.ConfidenceNone}
}

// matchByIBAN compares normalized account identifiers exactly.
func matchByIBAN(c candidate, parents []models.Parent, members []models.Member) *Result {
	if c.payerIBAN == "" {
		return nil
	}
	for i := range parents {
		p := &parents[i]
		if p.IBAN != "" && stripSpaces(p.IBAN) == c.payerIBAN {
			return &Result{
				ParentID:   &p.ID,
				MemberID:   firstLinkedMember(p.ID, members),
				Confidence: models.ConfidenceHigh,
				Reason:     "IBAN ujemanje: " + c.payerIBAN,
			}
		}
	}
	return nil
}

// matchByPayerFullName looks for the parent's full name, in either word
// order, inside the bank's payer-name field.
func matchByPayerFullName(c candidate, parents []models.Parent, members []models.Member) *Result {
	for i := range parents {
		p := &parents[i]
		forward := normalize(p.FirstName + " " + p.LastName)
		reversed := normalize(p.LastName + " " + p.FirstName)
		if strings.Contains(c.payerName, forward) || strings.Contains(c.payerName, reversed) {
			return &Result{
				ParentID:   &p.ID,
				MemberID:   firstLinkedMember(p.ID, members),
				Confidence: models.ConfidenceHigh,
				Reason:     "Ime plačnika: " + p.FullName(),
			}
		}
	}
	return nil
}

// matchByPayerLastName requires at least three characters to keep short
// surnames from producing false positives.
func matchByPayerLastName(c candidate, parents []models.Parent, members []models.Member) *Result {
	for i := range parents {
		p := &parents[i]
		last := normalize(p.LastName)
		if len([]rune(last)) >= 3 && strings.Contains(c.payerName, last) {
			return &Result{
				ParentID:   &p.ID,
				MemberID:   firstLinkedMember(p.ID, members),
				Confidence: models.ConfidenceMedium,
				Reason:     "Priimek v imenu plačnika: " + p.LastName,
			}
		}
	}
	return nil
}

// matchByMemberInDescription resolves through the member's first linked
// parent, since the payment itself must be attributed to a payer.
func matchByMemberInDescription(c candidate, _ []models.Parent, members []models.Member) *Result {
	if c.description == "" {
		return nil
	}
	for i := range members {
		m := &members[i]
		forward := normalize(m.FirstName + " " + m.LastName)
		reversed := normalize(m.LastName + " " + m.FirstName)
		if strings.Contains(c.description, forward) || strings.Contains(c.description, reversed) {
			return &Result{
				ParentID:   m.PrimaryParentID(),
				MemberID:   &m.ID,
				Confidence: models.ConfidenceMedium,
				Reason:     "Ime člana v opisu: " + m.FullName(),
			}
		}
	}
	return nil
}

func matchByLastNameInDescription(c candidate, parents []models.Parent, members []models.Member) *Result {
	if c.description == "" {
		return nil
	}
	for i := range parents {
		p := &parents[i]
		last := normalize(p.LastName)
		if len([]rune(last)) >= 3 && strings.Contains(c.description, last) {
			return &Result{
				ParentID:   &p.ID,
				MemberID:   firstLinkedMember(p.ID, members),
				Confidence: models.ConfidenceLow,
				Reason:     "Priimek v opisu: " + p.LastName,
			}
		}
	}
	return nil
}

func firstLinkedMember(parentID uuid.UUID, members []models.Member) *uuid.UUID {
	for i := range members {
		if members[i].HasParent(parentID) {
			id := members[i].ID
			return &id
		}
	}
	return nil
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func stripSpaces(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "")
}
