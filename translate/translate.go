// Package translate localizes the user visible messages of the synacor
// machine and its tools.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("synacor: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From translates an en-US Sprintf() format into the user's language.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}

