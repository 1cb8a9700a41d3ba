// Package camt parses camt.052 XML bank statements. Only credit entries are
// extracted; debits never represent incoming club dues. Element matching is
// by local name, so documents with or without namespace prefixes parse the
// same way.
package camt

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"tskpay-backend/internal/apperr"
)

// Statement is the parsed statement header.
type Statement struct {
	MessageID    string
	CreatedAt    time.Time
	AccountIBAN  string
	AccountOwner string
}

// Transaction is one normalized credit entry.
type Transaction struct {
	ID          string
	Amount      float64
	Currency    string
	BookingDate time.Time
	ValueDate   time.Time
	PayerName   string
	PayerIBAN   string
	Description string
	Reference   string
	BankFee     float64
}

// unknownPayer matches the placeholder the bank UI shows; kept in Slovenian
// like the rest of the operator-facing text.
const unknownPayer = "Neznani plačnik"

type xmlAmount struct {
	Ccy   string `xml:"Ccy,attr"`
	Value string `xml:",chardata"`
}

type xmlTxDtls struct {
	Refs struct {
		TxID       string `xml:"TxId"`
		EndToEndID string `xml:"EndToEndId"`
	} `xml:"Refs"`
	RltdPties struct {
		DbtrNm    string `xml:"Dbtr>Nm"`
		DbtrPtyNm string `xml:"Dbtr>Pty>Nm"`
		DbtrIBAN  string `xml:"DbtrAcct>Id>IBAN"`
	} `xml:"RltdPties"`
	RmtInf struct {
		Ustrd []string `xml:"Ustrd"`
		Strd  []struct {
			AddtlRmtInf []string `xml:"AddtlRmtInf"`
			CdtrRef     string   `xml:"CdtrRefInf>Ref"`
		} `xml:"Strd"`
	} `xml:"RmtInf"`
}

type xmlEntry struct {
	Amt         xmlAmount `xml:"Amt"`
	CdtDbtInd   string    `xml:"CdtDbtInd"`
	BookgDt     string    `xml:"BookgDt>Dt"`
	BookgDtTm   string    `xml:"BookgDt>DtTm"`
	ValDt       string    `xml:"ValDt>Dt"`
	AcctSvcrRef string    `xml:"AcctSvcrRef"`
	Chrgs       struct {
		Ttl  *xmlAmount `xml:"TtlChrgsAndTaxAmt"`
		Rcrd []struct {
			Amt xmlAmount `xml:"Amt"`
		} `xml:"Rcrd"`
	} `xml:"Chrgs"`
	NtryDtls struct {
		TxDtls []xmlTxDtls `xml:"TxDtls"`
	} `xml:"NtryDtls"`
}

type xmlDocument struct {
	XMLName xml.Name `xml:"Document"`
	GrpHdr  struct {
		MsgID   string `xml:"MsgId"`
		CreDtTm string `xml:"CreDtTm"`
	} `xml:"BkToCstmrAcctRpt>GrpHdr"`
	Rpts []struct {
		Acct struct {
			IBAN   string `xml:"Id>IBAN"`
			OwnrNm string `xml:"Ownr>Nm"`
		} `xml:"Acct"`
		Entries []xmlEntry `xml:"Ntry"`
	} `xml:"BkToCstmrAcctRpt>Rpt"`
}

// Parse decodes a camt.052 document. It returns a FormatError when the
// document is not well-formed XML and a SchemaError when the header or
// account identification is missing.
func Parse(raw []byte) (*Statement, []Transaction, error) {
	var doc xmlDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, nil, &apperr.FormatError{Err: err}
	}

	if strings.TrimSpace(doc.GrpHdr.MsgID) == "" {
		return nil, nil, &apperr.SchemaError{Missing: "GrpHdr/MsgId"}
	}
	if len(doc.Rpts) == 0 || strings.TrimSpace(doc.Rpts[0].Acct.IBAN) == "" {
		return nil, nil, &apperr.SchemaError{Missing: "Rpt/Acct/Id/IBAN"}
	}

	stmt := &Statement{
		MessageID:    strings.TrimSpace(doc.GrpHdr.MsgID),
		CreatedAt:    parseDate(doc.GrpHdr.CreDtTm),
		AccountIBAN:  strings.TrimSpace(doc.Rpts[0].Acct.IBAN),
		AccountOwner: strings.TrimSpace(doc.Rpts[0].Acct.OwnrNm),
	}

	var txs []Transaction
	for _, rpt := range doc.Rpts {
		for _, e := range rpt.Entries {
			if strings.TrimSpace(e.CdtDbtInd) != "CRDT" {
				continue
			}
			txs = append(txs, parseEntry(e))
		}
	}
	return stmt, txs, nil
}

func parseEntry(e xmlEntry) Transaction {
	tx := Transaction{
		Amount:      parseAmount(e.Amt.Value),
		Currency:    orDefault(e.Amt.Ccy, "EUR"),
		BookingDate: parseDate(firstNonEmpty(e.BookgDt, e.BookgDtTm)),
		ValueDate:   parseDate(e.ValDt),
		PayerName:   unknownPayer,
		BankFee:     parseCharges(e),
	}

	var dtl xmlTxDtls
	if len(e.NtryDtls.TxDtls) > 0 {
		dtl = e.NtryDtls.TxDtls[0]
	}

	// Stable id chain: bank reference, then transaction detail id, then a
	// generated fallback. The fallback makes idempotent re-import impossible
	// for such entries, which is accepted.
	tx.ID = firstNonEmpty(
		strings.TrimSpace(e.AcctSvcrRef),
		strings.TrimSpace(dtl.Refs.TxID),
		fallbackID(),
	)

	if name := firstNonEmpty(dtl.RltdPties.DbtrNm, dtl.RltdPties.DbtrPtyNm); name != "" {
		tx.PayerName = strings.TrimSpace(name)
	}
	tx.PayerIBAN = strings.TrimSpace(dtl.RltdPties.DbtrIBAN)

	// Prefer unstructured remittance info, fall back to structured text.
	tx.Description = strings.TrimSpace(strings.Join(dtl.RmtInf.Ustrd, " "))
	if tx.Description == "" {
		for _, strd := range dtl.RmtInf.Strd {
			if s := strings.TrimSpace(strings.Join(strd.AddtlRmtInf, " ")); s != "" {
				tx.Description = s
				break
			}
		}
	}

	ref := ""
	for _, strd := range dtl.RmtInf.Strd {
		if strd.CdtrRef != "" {
			ref = strd.CdtrRef
			break
		}
	}
	ref = firstNonEmpty(ref, dtl.Refs.EndToEndID)
	if strings.TrimSpace(ref) != "NOTPROVIDED" {
		tx.Reference = strings.TrimSpace(ref)
	}

	return tx
}

func parseCharges(e xmlEntry) float64 {
	if e.Chrgs.Ttl != nil {
		return parseAmount(e.Chrgs.Ttl.Value)
	}
	if len(e.Chrgs.Rcrd) > 0 {
		return parseAmount(e.Chrgs.Rcrd[0].Amt.Value)
	}
	return 0
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func fallbackID() string {
	return fmt.Sprintf("tx-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
