package matching

import (
	"testing"

	"github.com/google/uuid"

	"tskpay-backend/internal/models"
)

func testRoster() ([]models.Parent, []models.Member) {
	novak := models.Parent{
		ID:        uuid.New(),
		FirstName: "Janez",
		LastName:  "Novak",
		IBAN:      "SI56 1910 0000 0123 438",
	}
	kranjc := models.Parent{
		ID:        uuid.New(),
		FirstName: "Mojca",
		LastName:  "Kranjc",
	}
	parents := []models.Parent{novak, kranjc}
	members := []models.Member{
		{
			ID:        uuid.New(),
			FirstName: "Ana",
			LastName:  "Novak",
			ParentIDs: []uuid.UUID{novak.ID},
		},
		{
			ID:        uuid.New(),
			FirstName: "Luka",
			LastName:  "Kranjc",
			ParentIDs: []uuid.UUID{kranjc.ID},
		},
	}
	return parents, members
}

func TestMatchByIBAN(t *testing.T) {
	parents, members := testRoster()
	res := Match(Candidate{
		PayerName: "NEKDO DRUG",
		PayerIBAN: "SI56191000000123438", // no spaces, still matches
	}, parents, members)

	if res.Confidence != models.ConfidenceHigh {
		t.Fatalf("Confidence = %v, want high", res.Confidence)
	}
	if res.ParentID == nil || *res.ParentID != parents[0].ID {
		t.Errorf("ParentID = %v, want Novak", res.ParentID)
	}
	if res.MemberID == nil || *res.MemberID != members[0].ID {
		t.Errorf("MemberID = %v, want Ana", res.MemberID)
	}
}

func TestMatchByPayerName(t *testing.T) {
	parents, members := testRoster()
	tests := []struct {
		name       string
		payer      string
		confidence models.MatchConfidence
	}{
		{"full name forward", "JANEZ NOVAK", models.ConfidenceHigh},
		{"full name reversed", "NOVAK JANEZ", models.ConfidenceHigh},
		{"case insensitive", "novak janez", models.ConfidenceHigh},
		{"last name only", "NOVAK D.O.O.", models.ConfidenceMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Match(Candidate{PayerName: tt.payer}, parents, members)
			if res.Confidence != tt.confidence {
				t.Errorf("Confidence = %v, want %v", res.Confidence, tt.confidence)
			}
			if res.ParentID == nil || *res.ParentID != parents[0].ID {
				t.Errorf("ParentID = %v, want Novak", res.ParentID)
			}
		})
	}
}

func TestMatchByDescription(t *testing.T) {
	parents, members := testRoster()

	res := Match(Candidate{
		PayerName:   "PLACILNI PROMET",
		Description: "Vadnina za Luka Kranjc marec",
	}, parents, members)
	if res.Confidence != models.ConfidenceMedium {
		t.Fatalf("Confidence = %v, want medium for member name in description", res.Confidence)
	}
	if res.MemberID == nil || *res.MemberID != members[1].ID {
		t.Errorf("MemberID = %v, want Luka", res.MemberID)
	}
	if res.ParentID == nil || *res.ParentID != parents[1].ID {
		t.Errorf("ParentID = %v, want Kranjc via member link", res.ParentID)
	}
}

func TestAccountMatchBeatsDescription(t *testing.T) {
	parents, members := testRoster()

	// The IBAN points at Novak while the description names Kranjc's member.
	// The exact signal must win.
	res := Match(Candidate{
		PayerIBAN:   "SI56 1910 0000 0123 438",
		Description: "Luka Kranjc vadnina",
	}, parents, members)
	if res.ParentID == nil || *res.ParentID != parents[0].ID {
		t.Fatalf("ParentID = %v, IBAN match must take priority", res.ParentID)
	}
	if res.Confidence != models.ConfidenceHigh {
		t.Errorf("Confidence = %v, want high", res.Confidence)
	}
}

func TestShortLastNameSkipped(t *testing.T) {
	parents := []models.Parent{{ID: uuid.New(), FirstName: "A", LastName: "Ng"}}
	res := Match(Candidate{PayerName: "ANGLEŠKI PLAČNIK"}, parents, nil)
	if res.Confidence != models.ConfidenceNone {
		t.Errorf("Confidence = %v, two-letter surname must not substring-match", res.Confidence)
	}
}

func TestNoMatch(t *testing.T) {
	parents, members := testRoster()
	res := Match(Candidate{
		PayerName:   "POPOLNOMA NEZNAN",
		Description: "brez sledi",
	}, parents, members)
	if res.Confidence != models.ConfidenceNone {
		t.Errorf("Confidence = %v, want none", res.Confidence)
	}
	if res.ParentID != nil || res.MemberID != nil {
		t.Errorf("ids must be nil on no match, got %v/%v", res.ParentID, res.MemberID)
	}
}
