// Command import_items checks a CSV item file and prints what it would load
// into the lending catalog.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"library-lending/library"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run imports the CSV named in args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintf(stderr, "usage: import_items <items.csv>\n")
		fmt.Fprintf(stderr, "columns: %s\n", strings.Join(library.ImportColumns, ","))
		return 2
	}
	path := args[0]

	manager, err := library.NewManager()
	if err != nil {
		fmt.Fprintf(stderr, "Error creating catalog: %v\n", err)
		return 1
	}
	defer manager.Close()

	fmt.Fprintf(stdout, "Importing items from %s...\n", path)
	added, err := manager.ImportFile(path)
	if err != nil {
		fmt.Fprintf(stdout, "Warnings:\n%v\n", err)
	}

	fmt.Fprintf(stdout, "\nImport complete!\n")
	fmt.Fprintf(stdout, "Successfully imported: %d items\n", added)
	if added == 0 {
		if err != nil {
			return 1
		}
		return 0
	}

	fmt.Fprintln(stdout, "\nImported items:")
	fmt.Fprintf(stdout, "%-9s %-40s %-25s %s\n", "Kind", "Title", "Author", "Detail")
	fmt.Fprintln(stdout, strings.Repeat("-", 100))
	for _, it := range manager.ListItems() {
		fmt.Fprintf(stdout, "%-9s %-40s %-25s %s\n", it.Kind, truncateString(it.Title, 40), truncateString(it.Author, 25), it.Detail())
	}
	return 0
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
