package shell

import "github.com/clicafe/clicafe/pkg/protocol"

// Result is what the console renders after a line has been executed.
type Result struct {
	// Lines are printed in order. Lines starting with "Error:" are errors.
	Lines []string

	// Path is the session path after the command, for the prompt.
	Path string

	// Popup, if set, is a product card to show.
	Popup *Popup

	// Terminate ends the shell (exit, or an expired session).
	Terminate bool

	// RedirectURL is the payment page to open, if any.
	RedirectURL string

	// Color is the terminal colour after the command.
	Color string

	// MaskInput asks the console to read the next line without echo.
	MaskInput bool
}

// Popup is a product card.
type Popup struct {
	Title       string
	Price       protocol.Price
	Description string
	ImageURL    string
}

func lines(l ...string) Result {
	return Result{Lines: l}
}

func (r Result) add(l ...string) Result {
	r.Lines = append(r.Lines, l...)
	return r
}
