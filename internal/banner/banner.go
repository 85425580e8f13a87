package banner

import (
	"fmt"
	"strings"
)

const logo = `
======================================================================
  ____      _ _ _  ___ _
 / ___|__ _| | | |/ (_) |_
| |   / _` + "`" + ` | | | ' /| | __|
| |__| (_| | | | . \| | |_
 \____\__,_|_|_|_|\_\_|\__|
----------------------------------------------------------------------`

const footer = `======================================================================`

// ConfigLine represents a single configuration line to display
type ConfigLine struct {
	Label string
	Value string
}

// Print displays the startup banner with the client name and configuration
func Print(clientName string, config []ConfigLine) {
	fmt.Println(logo)
	fmt.Printf("%s\n", clientName)

	maxLen := 0
	for _, c := range config {
		if len(c.Label) > maxLen {
			maxLen = len(c.Label)
		}
	}

	for _, c := range config {
		padding := strings.Repeat(" ", maxLen-len(c.Label))
		fmt.Printf("  %s%s : %s\n", c.Label, padding, c.Value)
	}

	fmt.Println()
	fmt.Println("Ready.")
	fmt.Println(footer)
	fmt.Println()
}
