package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"library-lending/library"
)

const defaultWidth = 100

// shell is the interactive front end. It reads one command per line and
// asks for the fields each command needs.
type shell struct {
	mgr *library.Manager
	sc  *bufio.Scanner
	out io.Writer

	// interactive echoes prompts; piped input runs silently.
	interactive bool
	width       int
}

func newShell(mgr *library.Manager, in io.Reader, out io.Writer) *shell {
	sh := &shell{mgr: mgr, sc: bufio.NewScanner(in), out: out, width: defaultWidth}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		sh.interactive = true
	}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 40 {
			sh.width = w
		}
	}
	return sh
}

func (sh *shell) printf(format string, args ...any) { fmt.Fprintf(sh.out, format, args...) }
func (sh *shell) println(args ...any)               { fmt.Fprintln(sh.out, args...) }

// ask prompts for one field. ok is false once input is exhausted.
func (sh *shell) ask(label string) (string, bool) {
	if sh.interactive {
		sh.printf("%s: ", label)
	}
	if !sh.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sh.sc.Text()), true
}

// askInt prompts for a non-negative number; blank means zero.
func (sh *shell) askInt(label string) (int, bool) {
	s, ok := sh.ask(label)
	if !ok {
		return 0, false
	}
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		sh.printf("Invalid %s: %s\n", strings.ToLower(label), s)
		return 0, false
	}
	return n, true
}

func (sh *shell) run() {
	sh.println("Library lending catalog. Type 'help' for commands.")

	for {
		if sh.interactive {
			sh.printf("\n> ")
		}
		if !sh.sc.Scan() {
			return
		}
		cmd := strings.Join(strings.Fields(strings.ToLower(sh.sc.Text())), " ")

		switch cmd {
		case "":
		case "add book":
			sh.addItem(library.KindBook)
		case "add magazine":
			sh.addItem(library.KindMagazine)
		case "add video":
			sh.addItem(library.KindVideo)
		case "add patron":
			sh.addPatron()
		case "list items":
			sh.listItems(sh.mgr.ListItems(), "No items in the catalog.")
		case "list patrons":
			sh.listPatrons()
		case "search":
			sh.search()
		case "borrow":
			sh.circulate(true)
		case "return":
			sh.circulate(false)
		case "history":
			sh.history()
		case "report":
			sh.report()
		case "import":
			sh.importFile()
		case "seed":
			sh.seed()
		case "help":
			sh.help()
		case "exit", "quit":
			sh.println("Goodbye!")
			return
		default:
			sh.printf("Unknown command %q. Type 'help' for commands.\n", cmd)
		}
	}
}

func (sh *shell) help() {
	sh.println("Available commands:")
	sh.println("  Items:       add book, add magazine, add video, list items, search")
	sh.println("  Patrons:     add patron, list patrons, history")
	sh.println("  Circulation: borrow, return")
	sh.println("  Catalog:     report, import, seed")
	sh.println("  System:      help, exit")
}

func (sh *shell) addItem(kind library.Kind) {
	title, ok := sh.ask("Title")
	if !ok {
		return
	}
	author, ok := sh.ask("Author")
	if !ok {
		return
	}
	year, ok := sh.askInt("Year")
	if !ok {
		return
	}

	var item *library.Item
	switch kind {
	case library.KindBook:
		pages, ok := sh.askInt("Pages")
		if !ok {
			return
		}
		item = library.NewBook(title, author, year, pages)
	case library.KindMagazine:
		edition, ok := sh.ask("Edition")
		if !ok {
			return
		}
		item = library.NewMagazine(title, author, year, edition)
	case library.KindVideo:
		minutes, ok := sh.askInt("Minutes")
		if !ok {
			return
		}
		subject, ok := sh.ask("Subject")
		if !ok {
			return
		}
		item = library.NewVideo(title, author, year, minutes, subject)
	}

	if res := sh.mgr.AddItem(item); !res.Success {
		sh.printf("Error adding %s: %s\n", kind, res.Message)
		return
	}
	sh.printf("Added %s: %s\n", kind, item.Describe())
}

func (sh *shell) addPatron() {
	name, ok := sh.ask("Name")
	if !ok {
		return
	}
	id, ok := sh.ask("Patron ID")
	if !ok {
		return
	}
	p := library.NewPatron(name, id)
	if res := sh.mgr.RegisterPatron(p); !res.Success {
		sh.printf("Error: %s\n", res.Message)
		return
	}
	sh.printf("Registered patron '%s' with ID %s\n", p.Name, p.ID)
}

func (sh *shell) listItems(items []*library.Item, empty string) {
	if len(items) == 0 {
		sh.println(empty)
		return
	}

	titleW := max(20, sh.width-60)
	sh.printf("%-9s %-*s %-20s %-6s %-10s %s\n", "Kind", titleW, "Title", "Author", "Year", "Status", "Detail")
	sh.println(strings.Repeat("-", min(sh.width, titleW+72)))
	for _, it := range items {
		year := "n.d."
		if it.Year > 0 {
			year = strconv.Itoa(it.Year)
		}
		sh.printf("%-9s %-*s %-20s %-6s %-10s %s\n",
			it.Kind,
			titleW, truncateString(it.Title, titleW),
			truncateString(it.Author, 20),
			year,
			it.Status(),
			it.Detail())
	}
}

func (sh *shell) listPatrons() {
	patrons := sh.mgr.Patrons()
	if len(patrons) == 0 {
		sh.println("No patrons registered.")
		return
	}

	sh.printf("%-8s %-25s %s\n", "ID", "Name", "Holding")
	sh.println(strings.Repeat("-", min(sh.width, 70)))
	for _, p := range patrons {
		var titles []string
		sh.mgr.InspectPatron(p.ID, func(p *library.Patron) {
			for _, it := range p.Held() {
				titles = append(titles, it.Title)
			}
		})
		holding := "None"
		if len(titles) > 0 {
			holding = strings.Join(titles, ", ")
		}
		sh.printf("%-8s %-25s %s\n", p.ID, truncateString(p.Name, 25), holding)
	}
}

func (sh *shell) search() {
	query, ok := sh.ask("Query")
	if !ok {
		return
	}
	items := sh.mgr.SearchItems(query)
	if len(items) == 0 {
		sh.printf("No items found matching '%s'.\n", query)
		return
	}
	sh.printf("Found %d item(s) matching '%s':\n", len(items), query)
	sh.listItems(items, "")
	sh.println()
	for _, it := range items {
		sh.println("  " + it.Summary())
	}
}

// circulate handles both borrow and return; they ask for the same fields.
func (sh *shell) circulate(borrow bool) {
	title, ok := sh.ask("Title")
	if !ok {
		return
	}
	id, ok := sh.ask("Patron ID")
	if !ok {
		return
	}

	if borrow {
		if res := sh.mgr.Borrow(title, id); !res.Success {
			sh.printf("Error borrowing: %s\n", res.Message)
			return
		}
		sh.printf("'%s' lent to patron %s\n", sh.mgr.FindItemByTitle(title).Title, strings.TrimSpace(id))
		return
	}
	if res := sh.mgr.ReturnItem(title, id); !res.Success {
		sh.printf("Error returning: %s\n", res.Message)
		return
	}
	sh.printf("'%s' returned by patron %s\n", sh.mgr.FindItemByTitle(title).Title, strings.TrimSpace(id))
}

func (sh *shell) history() {
	id, ok := sh.ask("Patron ID")
	if !ok {
		return
	}
	var (
		lines []string
		name  string
	)
	if !sh.mgr.InspectPatron(id, func(p *library.Patron) {
		name = p.Name
		for line := range p.HistoryView() {
			lines = append(lines, line)
		}
	}) {
		sh.printf("Error: %s: %q\n", library.ErrPatronNotFound, strings.TrimSpace(id))
		return
	}
	if len(lines) == 0 {
		sh.printf("No history for %s.\n", name)
		return
	}
	sh.printf("History for %s:\n", name)
	for _, line := range lines {
		sh.println("  " + line)
	}
}

func (sh *shell) report() {
	loans, err := sh.mgr.OutstandingLoans()
	if err != nil {
		sh.printf("Error: %v\n", err)
		return
	}
	sh.println("Outstanding loans:")
	if len(loans) == 0 {
		sh.println("  None")
	}
	for _, l := range loans {
		sh.printf("  %-30s patron %-8s since %s\n", truncateString(l.Title, 30), l.PatronID, l.Since.Format("2006-01-02"))
	}

	counts, err := sh.mgr.LoanCounts()
	if err != nil {
		sh.printf("Error: %v\n", err)
		return
	}
	sh.println("Most borrowed:")
	if len(counts) == 0 {
		sh.println("  None")
	}
	for _, c := range counts {
		sh.printf("  %-30s %d\n", truncateString(c.Title, 30), c.Count)
	}
}

func (sh *shell) importFile() {
	path, ok := sh.ask("Path to CSV file")
	if !ok {
		return
	}
	n, err := sh.mgr.ImportFile(path)
	if err != nil {
		sh.printf("Import warnings: %v\n", err)
	}
	sh.printf("Imported %d item(s).\n", n)
}

func (sh *shell) seed() {
	if err := library.SeedDemo(sh.mgr); err != nil {
		sh.printf("Seed warnings: %v\n", err)
	}
	sh.printf("Catalog holds %d item(s) and %d patron(s).\n", len(sh.mgr.ListItems()), len(sh.mgr.Patrons()))
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
