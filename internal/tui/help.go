package tui

import (
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# schnellrechner

Type an arithmetic expression and press **enter** (or **=**) to calculate it.

| Key | Action |
|-----|--------|
| ` + "`0-9 .`" + ` | digits and decimal point |
| ` + "`+ - * /`" + ` | operators, ` + "`*`" + ` and ` + "`/`" + ` bind tighter than ` + "`+`" + ` and ` + "`-`" + ` |
| ` + "`( )`" + ` | grouping |
| ` + "`enter` `=`" + ` | calculate |
| ` + "`c` `esc`" + ` | clear the display |
| ` + "`ctrl+r`" + ` | clear and forget the previous result |
| ` + "`backspace`" + ` | delete the last character |
| ` + "`ctrl+y`" + ` | copy the display to the clipboard |
| ` + "`h`" + ` | show or hide the history |
| ` + "`?`" + ` | show or hide this help |
| ` + "`q` `ctrl+c`" + ` | quit |

## Chaining

After a successful calculation the result stays on the display. Typing an
operator continues from it: ` + "`2+3=`" + ` followed by ` + "`*4=`" + ` gives **20**.
Typing a digit right after a result appends to it, so ` + "`5=`" + ` then ` + "`3=`" + `
gives **53**.

## Errors

- **InvalidExpression**: an operator is missing an operand or operands are left over
- **DivisionByZero**: the right side of ` + "`/`" + ` evaluated to zero
- **InvalidOperator**: a parenthesis was never closed

Negative numbers have to be written as a subtraction, for example ` + "`0-5`" + `.
`

// renderHelp renders the help page for the given width, falling back to
// the raw markdown when glamour fails.
func renderHelp(width int) string {
	if width < 20 {
		width = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := renderer.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out
}
