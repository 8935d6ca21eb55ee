// Package ofx reads OFX/QFX card and bank statements into expense drafts.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-budget-must-balance/internal/ledger"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Entry is one statement line.
type Entry struct {
	Date    time.Time
	FITID   string
	Account string
	Payee   string
	Memo    string
	Type    string
	Amount  int64 // signed as in the statement; debits are negative
}

// Debit reports whether the entry is money going out.
func (e Entry) Debit() bool {
	return e.Amount < 0
}

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// Fix mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Fix missing closing angle brackets in SGML-style OFX files
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// ParseFile parses an OFX/QFX statement.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var entries []Entry
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			entries = append(entries, p.convertList(stmt.BankTranList, string(stmt.BankAcctFrom.AcctID))...)
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			entries = append(entries, p.convertList(stmt.BankTranList, string(stmt.CCAcctFrom.AcctID))...)
		}
	}

	slog.Info("Parsed OFX file",
		"entries", len(entries),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return entries, nil
}

func (p *Parser) convertList(list *ofxgo.TransactionList, account string) []Entry {
	if list == nil {
		return nil
	}
	out := make([]Entry, 0, len(list.Transactions))
	for _, tx := range list.Transactions {
		out = append(out, p.convertTransaction(tx, account))
	}
	return out
}

// convertTransaction truncates the amount to whole won.
func (p *Parser) convertTransaction(tx ofxgo.Transaction, account string) Entry {
	amount, _ := tx.TrnAmt.Float64()

	return Entry{
		FITID:   string(tx.FiTID),
		Account: account,
		Date:    dateOnly(tx.DtPosted.Time),
		Payee:   p.extractPayee(tx),
		Memo:    strings.TrimSpace(string(tx.Memo)),
		Type:    tx.TrnType.String(),
		Amount:  decimal.NewFromFloat(amount).Truncate(0).IntPart(),
	}
}

// extractPayee prefers PAYEE, then NAME, then MEMO when NAME is generic.
func (p *Parser) extractPayee(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && isGenericDescription(name) {
		name = strings.TrimSpace(string(tx.Memo))
	}

	for _, prefix := range []string{"POS PURCHASE ", "DEBIT CARD PURCHASE ", "CHECK CARD ", "체크카드 ", "신용카드 "} {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = strings.TrimSpace(name[len(prefix):])
			break
		}
	}
	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "", "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE", "카드결제", "출금":
		return true
	}
	return false
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DraftOptions controls how entries become expense drafts.
type DraftOptions struct {
	Category string
	RCMSCode string
	Settled  bool
}

// Drafts converts debit entries into expense drafts. Credits and repeated
// FITIDs are skipped; the second return value counts skipped entries.
func Drafts(entries []Entry, opts DraftOptions) ([]ledger.Draft, int) {
	seen := make(map[string]bool, len(entries))
	drafts := make([]ledger.Draft, 0, len(entries))
	skipped := 0

	for _, e := range entries {
		if !e.Debit() {
			skipped++
			continue
		}
		if e.FITID != "" {
			key := e.Account + "/" + e.FITID
			if seen[key] {
				skipped++
				continue
			}
			seen[key] = true
		}

		detail := e.Memo
		if detail == "" {
			detail = "FITID " + e.FITID
		}
		settled := opts.Settled
		drafts = append(drafts, ledger.Draft{
			Category: opts.Category,
			Date:     e.Date,
			Title:    e.Payee,
			Detail:   detail,
			Amount:   -e.Amount,
			RCMSCode: opts.RCMSCode,
			Settled:  &settled,
		})
	}
	return drafts, skipped
}
