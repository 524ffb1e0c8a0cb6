// Command notifications is a terminal notification center for the
// patient/therapist app: a bell with an unread badge, a preview dropdown,
// the full list and the preferences editor.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
