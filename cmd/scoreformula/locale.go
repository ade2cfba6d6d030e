package main

import (
	jj "github.com/cloudfoundry/jibber_jabber"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/nihei9/scoreformula/internal/trace"
	"github.com/nihei9/scoreformula/value"
)

const defaultLocale = "en-US"

// newPrinter returns a printer for the --lang tag, or for the user locale when the flag is empty.
func newPrinter() *message.Printer {
	locale := *rootFlags.lang
	if locale == "" {
		l, err := jj.DetectIETF()
		if err != nil {
			trace.Core().Infof("cannot detect the user locale, using %v: %v", defaultLocale, err)
			l = defaultLocale
		}
		locale = l
	}
	tag, err := language.Parse(locale)
	if err != nil {
		trace.Core().Infof("unknown locale %v, using %v", locale, defaultLocale)
		tag = language.Make(defaultLocale)
	}
	return message.NewPrinter(tag)
}

func formatValue(p *message.Printer, v value.Value) string {
	if v.Kind() != value.KindNumber {
		return v.String()
	}
	f, _ := v.ToNumber()
	return p.Sprint(number.Decimal(f, number.MaxFractionDigits(10)))
}
