package cmd

import (
	"fmt"
	"io"
	"os"
)

// ── Output helpers ────────────────────────────────────────────────────────────
// Every command prints status lines through these so icons and indentation
// stay consistent.
//
//   ✓  success        ✗  error (stderr)    ⚠  warning
//   ○  skipped        -  missing           ~  info

// printSection prints a top-level section header, e.g. "=== askrepo index ===".
func printSection(title string) {
	fmt.Printf("\n=== %s ===\n", title)
}

// printBullet prints a grouped-section bullet, e.g. "● Sugestões:".
func printBullet(title string) {
	fmt.Printf("\n● %s\n", title)
}

// statusLine writes "  <icon>  msg", or "  <icon>  [name] msg" when name is set.
func statusLine(w io.Writer, icon, name, msg string) {
	if name != "" {
		msg = "[" + name + "] " + msg
	}
	fmt.Fprintf(w, "  %s  %s\n", icon, msg)
}

func printOK(name, msg string)   { statusLine(os.Stdout, "✓", name, msg) }
func printErr(name, msg string)  { statusLine(os.Stderr, "✗", name, msg) }
func printWarn(name, msg string) { statusLine(os.Stdout, "⚠", name, msg) }
func printSkip(name, msg string) { statusLine(os.Stdout, "○", name, msg) }
func printMiss(name, msg string) { statusLine(os.Stdout, "-", name, msg) }
func printInfo(name, msg string) { statusLine(os.Stdout, "~", name, msg) }
