package camt

import (
	"errors"
	"math"
	"strings"
	"testing"

	"tskpay-backend/internal/apperr"
)

const sampleStatement = `<?xml version="1.0" encoding="UTF-8"?>
<Document xmlns="urn:iso:std:iso:20022:tech:xsd:camt.052.001.08">
  <BkToCstmrAcctRpt>
    <GrpHdr>
      <MsgId>STMT-2024-001</MsgId>
      <CreDtTm>2024-03-15T08:30:00</CreDtTm>
    </GrpHdr>
    <Rpt>
      <Acct>
        <Id><IBAN>SI56020170014356205</IBAN></Id>
        <Ownr><Nm>TSK JUB Dol</Nm></Ownr>
      </Acct>
      <Ntry>
        <Amt Ccy="EUR">45.00</Amt>
        <CdtDbtInd>CRDT</CdtDbtInd>
        <BookgDt><Dt>2024-03-14</Dt></BookgDt>
        <ValDt><Dt>2024-03-14</Dt></ValDt>
        <AcctSvcrRef>REF-001</AcctSvcrRef>
        <NtryDtls>
          <TxDtls>
            <Refs><EndToEndId>SI00 1234</EndToEndId></Refs>
            <RltdPties>
              <Dbtr><Nm>Novak Janez</Nm></Dbtr>
              <DbtrAcct><Id><IBAN>SI56 1910 0000 0123 438</IBAN></Id></DbtrAcct>
            </RltdPties>
            <RmtInf><Ustrd>Vadnina marec Novak Ana</Ustrd></RmtInf>
          </TxDtls>
        </NtryDtls>
      </Ntry>
      <Ntry>
        <Amt Ccy="EUR">120.00</Amt>
        <CdtDbtInd>DBIT</CdtDbtInd>
        <BookgDt><Dt>2024-03-14</Dt></BookgDt>
        <AcctSvcrRef>REF-002</AcctSvcrRef>
      </Ntry>
    </Rpt>
  </BkToCstmrAcctRpt>
</Document>`

func TestParseCreditEntriesOnly(t *testing.T) {
	stmt, txs, err := Parse([]byte(sampleStatement))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if stmt.MessageID != "STMT-2024-001" {
		t.Errorf("MessageID = %q, want STMT-2024-001", stmt.MessageID)
	}
	if stmt.AccountIBAN != "SI56020170014356205" {
		t.Errorf("AccountIBAN = %q", stmt.AccountIBAN)
	}
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1 (debit must be skipped)", len(txs))
	}

	tx := txs[0]
	if tx.ID != "REF-001" {
		t.Errorf("ID = %q, want REF-001", tx.ID)
	}
	if math.Abs(tx.Amount-45.00) > 0.01 {
		t.Errorf("Amount = %v, want 45.00", tx.Amount)
	}
	if tx.PayerName != "Novak Janez" {
		t.Errorf("PayerName = %q", tx.PayerName)
	}
	if tx.PayerIBAN != "SI56 1910 0000 0123 438" {
		t.Errorf("PayerIBAN = %q", tx.PayerIBAN)
	}
	if tx.Description != "Vadnina marec Novak Ana" {
		t.Errorf("Description = %q", tx.Description)
	}
	if tx.Reference != "SI00 1234" {
		t.Errorf("Reference = %q, want EndToEndId fallback", tx.Reference)
	}
	if tx.BookingDate.Format("2006-01-02") != "2024-03-14" {
		t.Errorf("BookingDate = %v", tx.BookingDate)
	}
}

func TestParseNamespacePrefixed(t *testing.T) {
	// Same document with an explicit namespace prefix on every element.
	prefixed := `<?xml version="1.0"?>
<ns:Document xmlns:ns="urn:iso:std:iso:20022:tech:xsd:camt.052.001.02">
  <ns:BkToCstmrAcctRpt>
    <ns:GrpHdr><ns:MsgId>PRE-1</ns:MsgId></ns:GrpHdr>
    <ns:Rpt>
      <ns:Acct><ns:Id><ns:IBAN>SI56020170014356205</ns:IBAN></ns:Id></ns:Acct>
      <ns:Ntry>
        <ns:Amt Ccy="EUR">10.50</ns:Amt>
        <ns:CdtDbtInd>CRDT</ns:CdtDbtInd>
        <ns:BookgDt><ns:Dt>2024-01-05</ns:Dt></ns:BookgDt>
        <ns:AcctSvcrRef>P-1</ns:AcctSvcrRef>
      </ns:Ntry>
    </ns:Rpt>
  </ns:BkToCstmrAcctRpt>
</ns:Document>`

	stmt, txs, err := Parse([]byte(prefixed))
	if err != nil {
		t.Fatalf("Parse failed on prefixed document: %v", err)
	}
	if stmt.MessageID != "PRE-1" {
		t.Errorf("MessageID = %q", stmt.MessageID)
	}
	if len(txs) != 1 || math.Abs(txs[0].Amount-10.50) > 0.01 {
		t.Fatalf("txs = %+v", txs)
	}
}

func TestParseMalformedXML(t *testing.T) {
	_, _, err := Parse([]byte("<Document><broken"))
	var formatErr *apperr.FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("err = %v, want FormatError", err)
	}
}

func TestParseMissingHeader(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		missing string
	}{
		{
			name:    "no message id",
			doc:     `<Document><BkToCstmrAcctRpt><Rpt><Acct><Id><IBAN>SI56</IBAN></Id></Acct></Rpt></BkToCstmrAcctRpt></Document>`,
			missing: "GrpHdr/MsgId",
		},
		{
			name:    "no account iban",
			doc:     `<Document><BkToCstmrAcctRpt><GrpHdr><MsgId>M1</MsgId></GrpHdr></BkToCstmrAcctRpt></Document>`,
			missing: "Rpt/Acct/Id/IBAN",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.doc))
			var schemaErr *apperr.SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("err = %v, want SchemaError", err)
			}
			if schemaErr.Missing != tt.missing {
				t.Errorf("Missing = %q, want %q", schemaErr.Missing, tt.missing)
			}
		})
	}
}

func TestParseDefaults(t *testing.T) {
	doc := `<Document>
  <BkToCstmrAcctRpt>
    <GrpHdr><MsgId>M1</MsgId></GrpHdr>
    <Rpt>
      <Acct><Id><IBAN>SI56020170014356205</IBAN></Id></Acct>
      <Ntry>
        <Amt>30.00</Amt>
        <CdtDbtInd>CRDT</CdtDbtInd>
        <NtryDtls><TxDtls>
          <Refs><EndToEndId>NOTPROVIDED</EndToEndId></Refs>
        </TxDtls></NtryDtls>
      </Ntry>
    </Rpt>
  </BkToCstmrAcctRpt>
</Document>`

	_, txs, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("got %d transactions", len(txs))
	}
	tx := txs[0]
	if tx.Currency != "EUR" {
		t.Errorf("Currency = %q, want EUR default", tx.Currency)
	}
	if tx.PayerName != "Neznani plačnik" {
		t.Errorf("PayerName = %q, want placeholder", tx.PayerName)
	}
	if tx.Reference != "" {
		t.Errorf("Reference = %q, NOTPROVIDED must map to empty", tx.Reference)
	}
	if !strings.HasPrefix(tx.ID, "tx-") {
		t.Errorf("ID = %q, want generated fallback", tx.ID)
	}
}

func TestParseFallbackIDsUnique(t *testing.T) {
	if fallbackID() == fallbackID() {
		t.Error("fallback ids must differ between calls")
	}
}
