package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dvloznov/nett/internal/budget"
	"github.com/dvloznov/nett/internal/domain"
	"github.com/dvloznov/nett/internal/export"
	"github.com/dvloznov/nett/internal/gcs"
	"github.com/dvloznov/nett/internal/onboarding"
	"github.com/dvloznov/nett/internal/table"
)

const commandTimeout = 2 * time.Minute

// viewFlags are the table controls shared by listing and exporting.
type viewFlags struct {
	search    *string
	category  *string
	account   *string
	sort      *string
	ascending *bool
	page      *int
	pageSize  *int
}

func addViewFlags(fs *flag.FlagSet) viewFlags {
	return viewFlags{
		search:    fs.String("search", "", "Free-text search over name, category, subcategory and account"),
		category:  fs.String("category", "", "Only show this category (name)"),
		account:   fs.String("account", "", "Only show this account ID"),
		sort:      fs.String("sort", string(table.DefaultSort.Column), "Sort column: date, name, amount, category, subcategory or account"),
		ascending: fs.Bool("asc", false, "Sort ascending"),
		page:      fs.Int("page", 1, "Page number, starting at 1"),
		pageSize:  fs.Int("page-size", table.DefaultPageSize, "Rows per page: 10, 25, 50 or 100"),
	}
}

// apply pushes the flag values into engine.
func (v viewFlags) apply(engine *table.Engine) error {
	if *v.search != "" {
		engine.SetSearchInput(*v.search)
		engine.FlushSearch()
	}

	filters := table.Filters{AccountID: *v.account}
	if *v.category != "" {
		cat, ok := engine.Categories().ByName(*v.category)
		if !ok {
			return fmt.Errorf("unknown category %q", *v.category)
		}
		filters.CategoryID = cat.ID
	}
	engine.SetFilters(filters)

	col, err := table.ParseColumn(*v.sort)
	if err != nil {
		return err
	}
	dir := table.Descending
	if *v.ascending {
		dir = table.Ascending
	}
	if err := engine.SetSort(table.Sort{Column: col, Direction: dir}); err != nil {
		return err
	}
	if err := engine.SetPageSize(*v.pageSize); err != nil {
		return err
	}
	return engine.SetPage(*v.page - 1)
}

func runTransactions(s *session, args []string) error {
	fs := flag.NewFlagSet("transactions", flag.ExitOnError)
	view := addViewFlags(fs)
	fs.Parse(args)

	ctx, cancel := s.commandContext(commandTimeout)
	defer cancel()

	engine, err := s.openTable(ctx, table.Options{})
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := view.apply(engine); err != nil {
		return err
	}
	return printPage(os.Stdout, engine.View())
}

// printPage renders one page of rows as an aligned table.
func printPage(w io.Writer, p table.Page) error {
	if p.Empty {
		_, err := fmt.Fprintln(w, p.EmptyMessage)
		return err
	}

	// Amount goes last; color escapes skew tabwriter widths.
	pal := newPalette(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tNAME\tCATEGORY\tSUBCATEGORY\tACCOUNT\tAMOUNT")
	for _, r := range p.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Date.Format("2006-01-02"), r.Name, r.CategoryName, r.SubcategoryName, r.AccountName,
			pal.amount(table.FormatAmount(r.Amount), r.Tone))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "\n"+pal.muted.Render(fmt.Sprintf("Page %d of %d (%d transactions)", p.PageIndex+1, p.PageCount, p.Total)))
	return err
}

func runRename(s *session, args []string) error {
	fs := flag.NewFlagSet("rename", flag.ExitOnError)
	id := fs.String("id", "", "Transaction ID")
	name := fs.String("name", "", "New transaction name")
	fs.Parse(args)

	if *id == "" || *name == "" {
		return errors.New("usage: cli rename -id ID -name NAME")
	}

	ctx, cancel := s.commandContext(commandTimeout)
	defer cancel()

	engine, err := s.openTable(ctx, table.Options{})
	if err != nil {
		return err
	}
	defer engine.Close()

	cell, err := engine.NameCell(*id)
	if err != nil {
		return err
	}
	cell.BeginEdit()
	cell.SetDraft(*name)
	sent, err := cell.Commit(ctx)
	if err != nil {
		return err
	}
	if !sent {
		fmt.Println("Name unchanged.")
		return nil
	}
	s.report()
	return nil
}

func runRecategorize(s *session, args []string) error {
	fs := flag.NewFlagSet("recategorize", flag.ExitOnError)
	id := fs.String("id", "", "Transaction ID")
	category := fs.String("category", "", "Category name")
	fs.Parse(args)

	if *id == "" || *category == "" {
		return errors.New("usage: cli recategorize -id ID -category NAME")
	}

	ctx, cancel := s.commandContext(commandTimeout)
	defer cancel()

	engine, err := s.openTable(ctx, table.Options{})
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.ChangeCategory(ctx, *id, *category); err != nil {
		return err
	}
	s.report()
	return nil
}

func runSubcategorize(s *session, args []string) error {
	fs := flag.NewFlagSet("subcategorize", flag.ExitOnError)
	id := fs.String("id", "", "Transaction ID")
	subcategory := fs.String("subcategory", "", "Subcategory name within the transaction's category")
	fs.Parse(args)

	if *id == "" || *subcategory == "" {
		return errors.New("usage: cli subcategorize -id ID -subcategory NAME")
	}

	ctx, cancel := s.commandContext(commandTimeout)
	defer cancel()

	engine, err := s.openTable(ctx, table.Options{})
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.ChangeSubcategory(ctx, *id, *subcategory); err != nil {
		return err
	}
	s.report()
	return nil
}

func runDelete(s *session, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	ids := fs.String("ids", "", "Comma-separated transaction IDs")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	perItem := fs.Bool("per-item", false, "Remove the rows whose delete succeeded even when others fail")
	fs.Parse(args)

	targets := splitIDs(*ids)
	if len(targets) == 0 {
		return errors.New("usage: cli delete -ids ID[,ID...]")
	}

	ctx, cancel := s.commandContext(commandTimeout)
	defer cancel()

	opts := table.Options{}
	if *perItem {
		opts.CommitPolicy = table.CommitPerItem
	}
	engine, err := s.openTable(ctx, opts)
	if err != nil {
		return err
	}
	defer engine.Close()

	if len(targets) == 1 {
		err = engine.RequestDelete(targets[0])
	} else {
		for _, id := range targets {
			if _, err := engine.ToggleRow(id); err != nil {
				return err
			}
		}
		err = engine.RequestBulkDelete()
	}
	if err != nil {
		return err
	}

	c, _ := engine.Confirmation()
	if !*yes && !confirm(os.Stdin, os.Stdout, c) {
		engine.CancelDelete()
		fmt.Println("Cancelled.")
		return nil
	}

	removed, err := engine.ConfirmDelete(ctx)
	s.report()
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d of %d transactions.\n", len(removed), len(c.TargetIDs))
	return nil
}

// splitIDs parses a comma-separated ID list, dropping blanks.
func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// confirm shows the confirmation dialog and reads a yes/no answer. Anything
// but y or yes declines.
func confirm(in io.Reader, out io.Writer, c table.Confirmation) bool {
	fmt.Fprintf(out, "%s\n%s [y/N]: ", c.Title(), c.Prompt())
	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func runExport(s *session, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	view := addViewFlags(fs)
	out := fs.String("out", "", "Write CSV to this file")
	bucket := fs.String("bucket", "", "Upload CSV to this GCS bucket (defaults to GCS_BUCKET)")
	prefix := fs.String("prefix", "exports", "Object name prefix for GCS uploads")
	fs.Parse(args)

	if *bucket == "" {
		*bucket = s.cfg.GCSBucket
	}
	if *out == "" && *bucket == "" {
		return errors.New("usage: cli export -out FILE | -bucket NAME")
	}

	ctx, cancel := s.commandContext(commandTimeout)
	defer cancel()

	engine, err := s.openTable(ctx, table.Options{PageSize: table.PageSizes[len(table.PageSizes)-1]})
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := view.apply(engine); err != nil {
		return err
	}
	rows := exportRows(engine)

	if *out != "" {
		if err := export.ToFile(*out, rows); err != nil {
			return err
		}
		fmt.Printf("Exported %d transactions to %s\n", len(rows), *out)
		return nil
	}

	uri, err := export.ToGCS(ctx, gcs.NewClient(), *bucket, export.ObjectName(*prefix, time.Now()), rows)
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d transactions to %s\n", len(rows), uri)
	return nil
}

// exportRows collects every filtered, sorted row across all pages.
func exportRows(engine *table.Engine) []table.Row {
	if err := engine.SetPage(0); err != nil {
		return nil
	}
	var rows []table.Row
	for {
		p := engine.View()
		rows = append(rows, p.Rows...)
		if p.PageIndex >= p.PageCount-1 {
			return rows
		}
		engine.NextPage()
	}
}

func runBudgets(s *session, args []string) error {
	fs := flag.NewFlagSet("budgets", flag.ExitOnError)
	id := fs.String("id", "", "Show the periods of this budget")
	start := fs.String("start-date", "", "First period start (YYYY-MM-DD); defaults to the oldest transaction")
	chartPath := fs.String("chart", "", "Write a PNG chart of the periods to this file")
	fs.Parse(args)

	ctx, cancel := s.commandContext(commandTimeout)
	defer cancel()

	if *id == "" {
		budgets, err := s.client.ListBudgets(ctx)
		if err != nil {
			return err
		}
		cats, err := s.client.ListCategories(ctx)
		if err != nil {
			return err
		}
		return printBudgets(os.Stdout, budgets, cats)
	}

	var startDate time.Time
	if *start != "" {
		var err error
		if startDate, err = time.Parse("2006-01-02", *start); err != nil {
			return fmt.Errorf("invalid start-date %q", *start)
		}
	}
	periods, err := s.client.BudgetPeriods(ctx, *id, startDate)
	if err != nil {
		return err
	}
	if err := printPeriods(os.Stdout, periods); err != nil {
		return err
	}
	if *chartPath == "" {
		return nil
	}

	f, err := os.Create(*chartPath)
	if err != nil {
		return err
	}
	title := "Budget " + *id
	if len(periods) > 0 {
		title = periods[0].CategoryName
	}
	if err := budget.RenderChart(f, title, periods); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Chart written to %s\n", *chartPath)
	return nil
}

func printBudgets(w io.Writer, budgets []domain.Budget, cats domain.Catalog) error {
	if len(budgets) == 0 {
		_, err := fmt.Fprintln(w, "No budgets.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tSUBCATEGORY\tFREQUENCY\tAMOUNT")
	for _, b := range budgets {
		catName, subName := b.CategoryID, b.SubcategoryID
		if cat, ok := cats.ByID(b.CategoryID); ok {
			catName = cat.Name
			for _, sub := range cat.Subcategories {
				if sub.ID == b.SubcategoryID {
					subName = sub.Name
				}
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.ID, catName, subName, b.Frequency, table.FormatAmount(b.Amount))
	}
	return tw.Flush()
}

func printPeriods(w io.Writer, periods []domain.BudgetPeriod) error {
	if len(periods) == 0 {
		_, err := fmt.Fprintln(w, "No periods.")
		return err
	}
	pal := newPalette(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tLIMIT\tSPENT\tREMAINING")
	for _, p := range periods {
		remaining := table.FormatAmount(p.Remaining())
		if p.Over() {
			remaining = pal.charge.Render(remaining + " (over)")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"),
			table.FormatAmount(p.Limit), table.FormatAmount(p.Spent), remaining)
	}
	return tw.Flush()
}

func runOnboarding(s *session, args []string) error {
	fs := flag.NewFlagSet("onboarding", flag.ExitOnError)
	reset := fs.Bool("reset", false, "Forget that onboarding was completed")
	statusPath := fs.String("status-file", "", "Completion flag file (defaults to the user config dir)")
	fs.Parse(args)

	if *statusPath == "" {
		p, err := onboarding.DefaultStatusPath()
		if err != nil {
			return err
		}
		*statusPath = p
	}
	status := onboarding.NewFileStatus(filepath.Clean(*statusPath))

	if *reset {
		if err := status.Reset(); err != nil {
			return err
		}
		fmt.Println("Onboarding reset.")
		return nil
	}

	ctx, cancel := s.commandContext(commandTimeout)
	defer cancel()

	cats, err := s.client.ListCategories(ctx)
	if err != nil {
		return err
	}
	show, err := onboarding.ShouldShow(cats, status)
	if err != nil {
		return err
	}
	if !show {
		fmt.Println("Onboarding is not needed.")
		return nil
	}
	return runWizard(onboarding.NewWizard(status), cats, os.Stdin, os.Stdout)
}

// runWizard steps through the wizard reading n(ext), b(ack), s(kip) or q(uit)
// from in until it completes or the input ends.
func runWizard(w *onboarding.Wizard, cats []domain.Category, in io.Reader, out io.Writer) error {
	w.SetCategoriesComplete(len(cats) > 0)
	scanner := bufio.NewScanner(in)
	for !w.Done() {
		fmt.Fprintf(out, "Step %d: %s [n]ext [b]ack [s]kip [q]uit: ", int(w.Step())+1, w.Step())
		if !scanner.Scan() {
			return scanner.Err()
		}

		var err error
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "n", "next":
			err = w.Next()
		case "b", "back":
			err = w.Back()
		case "s", "skip":
			err = w.Skip()
		case "q", "quit":
			return nil
		default:
			continue
		}

		if errors.Is(err, onboarding.ErrCategoriesIncomplete) ||
			errors.Is(err, onboarding.ErrFirstStep) ||
			errors.Is(err, onboarding.ErrFinalStep) {
			fmt.Fprintln(out, err)
			continue
		}
		if err != nil {
			return err
		}
	}
	fmt.Fprintln(out, "Onboarding complete.")
	return nil
}
