package commands

import (
	"fmt"
	"strings"
)

// ═══════════════════════════════════════════════════════════
// Common formatting helpers shared by every command
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a boxed title
func PrintHeader(title string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
}

// PrintKV prints an aligned key/value line
func PrintKV(key string, value interface{}) {
	fmt.Printf("  %-14s: %v\n", key, value)
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintTable prints rows under a header with fixed column widths
func PrintTable(columns []string, widths []int, rows [][]string) {
	printRow(columns, widths)

	total := 0
	for _, w := range widths {
		total += w + 2
	}
	fmt.Println(strings.Repeat("─", total))

	for _, r := range rows {
		printRow(r, widths)
	}
}

func printRow(cells []string, widths []int) {
	for i, c := range cells {
		fmt.Printf("%-*s", widths[i], c)
		if i < len(cells)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}
