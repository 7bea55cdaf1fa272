package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a formatted section header
func PrintHeader(title string) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  %s\n", title)
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintJSON writes v as indented JSON to stdout
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTable returns a tab-aligned writer for row output; callers must Flush
func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

// FormatTime renders t for tables, "-" for the zero time
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// FormatTimePtr is FormatTime for optional timestamps
func FormatTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return FormatTime(*t)
}

// PassMark renders a boolean as a check mark
func PassMark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}
