package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/the-budget-must-balance/internal/catalog"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func header(tw io.Writer, cols ...string) {
	styled := make([]string, len(cols))
	rules := make([]string, len(cols))
	for i, c := range cols {
		styled[i] = TableHeaderStyle.UnsetBorderBottom().Render(c)
		rules[i] = strings.Repeat("-", max(4, len(c)))
	}
	fmt.Fprintln(tw, strings.Join(styled, "\t"))
	fmt.Fprintln(tw, strings.Join(rules, "\t"))
}

// RenderERP writes the ERP budget table.
func RenderERP(w io.Writer, rows []model.ERPBudgetRow) error {
	tw := newTable(w)
	header(tw, "Category", "Allocated", "Executed", "Balance", "Rate")
	for _, r := range rows {
		name := r.Category
		if r.Category == catalog.GrandTotal {
			name = BoldStyle.Render(name)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			name, FormatCurrency(r.Allocated), FormatCurrency(r.Executed),
			FormatCurrency(r.Balance), FormatRate(r.Rate))
	}
	return tw.Flush()
}

// RenderRCMS writes the RCMS budget table grouped by parent category, in
// table order, with a subtotal line per group.
func RenderRCMS(w io.Writer, rows []model.RCMSBudgetRow) error {
	tw := newTable(w)
	header(tw, "Code", "Item", "Budget", "Used", "Balance", "Rate")

	var (
		parent       string
		budget, used int64
		started      bool
	)
	flush := func() {
		if !started {
			return
		}
		fmt.Fprintf(tw, "\t%s\t%s\t%s\t%s\t\n",
			SubtleStyle.Render(parent+" 소계"), FormatCurrency(budget),
			FormatCurrency(used), FormatCurrency(budget-used))
	}
	for _, r := range rows {
		if !started || r.ParentCategory != parent {
			flush()
			parent, budget, used, started = r.ParentCategory, 0, 0, true
			fmt.Fprintf(tw, "%s\t\t\t\t\t\n", BoldStyle.Render("["+parent+"]"))
		}
		budget += r.Budget
		used += r.Used
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Code, r.Name, FormatCurrency(r.Budget), FormatCurrency(r.Used),
			FormatCurrency(r.Balance), FormatRate(r.Rate))
	}
	flush()
	return tw.Flush()
}

// RenderTotals writes the summary line for one table.
func RenderTotals(w io.Writer, label string, t model.Totals) error {
	_, err := fmt.Fprintf(w, "%s: allocated %s, executed %s, balance %s, rate %s\n",
		label, FormatCurrency(t.Allocated), FormatCurrency(t.Executed),
		FormatCurrency(t.Balance), FormatRate(t.Rate))
	return err
}

// RenderReconciliation writes the executed-amount check and the
// informational allocated-amount comparison.
func RenderReconciliation(w io.Writer, rec model.Reconciliation) error {
	var lines []string
	if rec.Match {
		lines = append(lines, FormatSuccess(fmt.Sprintf("ERP and RCMS executed amounts match (%s)",
			FormatCurrency(rec.ERPExecuted))))
	} else {
		lines = append(lines, FormatWarning(fmt.Sprintf("ERP executed %s vs RCMS used %s: difference %s",
			FormatCurrency(rec.ERPExecuted), FormatCurrency(rec.RCMSExecuted), FormatCurrency(rec.Difference))))
	}
	if rec.AllocatedMatch {
		lines = append(lines, FormatInfo(fmt.Sprintf("Budgets agree (%s)", FormatCurrency(rec.ERPAllocated))))
	} else {
		lines = append(lines, FormatInfo(fmt.Sprintf("Budget difference %s (ERP %s, RCMS %s)",
			FormatCurrency(rec.AllocatedDifference), FormatCurrency(rec.ERPAllocated), FormatCurrency(rec.RCMSAllocated))))
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

// RenderUnsettled writes the unsettled-expense summary.
func RenderUnsettled(w io.Writer, u model.UnsettledSummary) error {
	if u.Count == 0 {
		_, err := fmt.Fprintln(w, FormatSuccess("All expenses are settled"))
		return err
	}
	ids := make([]string, len(u.IDs))
	for i, id := range u.IDs {
		ids[i] = strconv.Itoa(id)
	}
	_, err := fmt.Fprintf(w, "%s\n  IDs: %s\n",
		FormatWarning(fmt.Sprintf("%d unsettled expenses totalling %s", u.Count, FormatCurrency(u.Total))),
		strings.Join(ids, ", "))
	return err
}

// RenderReport writes the full execution result.
func RenderReport(w io.Writer, r *model.ExecutionReport) error {
	sections := []struct {
		render func() error
		title  string
	}{
		{title: "ERP budget", render: func() error { return RenderERP(w, r.ERP) }},
		{title: "RCMS budget", render: func() error { return RenderRCMS(w, r.RCMS) }},
		{title: "Totals", render: func() error {
			if err := RenderTotals(w, "ERP", r.ERPTotals); err != nil {
				return err
			}
			return RenderTotals(w, "RCMS", r.RCMSTotals)
		}},
		{title: "Reconciliation", render: func() error { return RenderReconciliation(w, r.Reconciliation) }},
		{title: "Unsettled", render: func() error { return RenderUnsettled(w, r.Unsettled) }},
	}
	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, FormatTitle(s.title))
		if err := s.render(); err != nil {
			return fmt.Errorf("failed to render %s: %w", strings.ToLower(s.title), err)
		}
	}
	return nil
}

// RenderExpenses writes an expense listing followed by a count and total.
func RenderExpenses(w io.Writer, expenses []model.Expense) error {
	if len(expenses) == 0 {
		_, err := fmt.Fprintln(w, InfoStyle.Render("No expenses found. Use 'budget expense add' to record one."))
		return err
	}

	tw := newTable(w)
	header(tw, "ID", "Date", "Category", "Title", "Amount", "RCMS", "Settled")
	var total int64
	for _, e := range expenses {
		rcms := e.RCMSCode
		if rcms == "" {
			rcms = SubtleStyle.Render("-")
		} else if e.RCMSName != "" {
			rcms += " " + e.RCMSName
		}
		settled := SubtleStyle.Render("no")
		if e.Settled {
			settled = SuccessStyle.Render("yes")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.DateString(), e.Category, e.Title, FormatCurrency(e.Amount), rcms, settled)
		total += e.Amount
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d expenses, total %s\n", len(expenses), FormatCurrency(total))
	return err
}
