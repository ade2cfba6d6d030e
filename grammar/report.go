package grammar

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"
)

type ReportTerminal struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

type ReportNonTerminal struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// ReportProduction lists its right-hand side as symbol numbers; non-terminal numbers are negated.
type ReportProduction struct {
	Number int   `json:"number"`
	LHS    int   `json:"lhs"`
	RHS    []int `json:"rhs"`
}

type ReportItem struct {
	Production int `json:"production"`
	Dot        int `json:"dot"`
}

type ReportTransition struct {
	Symbol int `json:"symbol"`
	State  int `json:"state"`
}

type ReportReduce struct {
	LookAhead  []int `json:"look_ahead"`
	Production int   `json:"production"`
}

type ReportState struct {
	Number    int                 `json:"number"`
	Kernel    []*ReportItem       `json:"kernel"`
	Shift     []*ReportTransition `json:"shift"`
	Reduce    []*ReportReduce     `json:"reduce"`
	GoTo      []*ReportTransition `json:"goto"`
	Accept    bool                `json:"accept"`
	Conflicts []*Conflict         `json:"conflicts"`
}

// Report describes a compiled automaton. Terminals, NonTerminals, and Productions are indexed by number;
// their index 0 is nil.
type Report struct {
	Name           string               `json:"name"`
	Class          AutomatonClass       `json:"class"`
	Terminals      []*ReportTerminal    `json:"terminals"`
	NonTerminals   []*ReportNonTerminal `json:"non_terminals"`
	Productions    []*ReportProduction  `json:"productions"`
	States         []*ReportState       `json:"states"`
	Conflicts      []*Conflict          `json:"conflicts"`
	TableSize      int                  `json:"table_size"`
	CompressedSize int                  `json:"compressed_size"`
}

// genReport describes the automaton from the dense tables of b, so it works for grammars with conflicts too.
func (b *lrTableBuilder) genReport(gram *Grammar) (*Report, error) {
	terms := make([]*ReportTerminal, b.termCount)
	for _, sym := range b.symTab.Terminals() {
		terms[sym.Num()] = &ReportTerminal{
			Number: sym.Num().Int(),
			Name:   b.symTab.Name(sym),
		}
	}

	nonTerms := make([]*ReportNonTerminal, b.nonTermCount)
	for _, sym := range b.symTab.NonTerminals() {
		nonTerms[sym.Num()] = &ReportNonTerminal{
			Number: sym.Num().Int(),
			Name:   b.symTab.Name(sym),
		}
	}

	prods := make([]*ReportProduction, b.prods.count())
	for _, p := range b.prods.all() {
		rhs := make([]int, len(p.rhs))
		for i, e := range p.rhs {
			if e.IsTerminal() {
				rhs[i] = e.Num().Int()
			} else {
				rhs[i] = e.Num().Int() * -1
			}
		}
		prods[p.num] = &ReportProduction{
			Number: p.num.Int(),
			LHS:    p.lhs.Num().Int(),
			RHS:    rhs,
		}
	}

	conflicts := map[int][]*Conflict{}
	for _, c := range b.conflicts {
		conflicts[c.State] = append(conflicts[c.State], c)
	}

	states := make([]*ReportState, len(b.automaton.states))
	for _, s := range b.automaton.states {
		kernel := make([]*ReportItem, len(s.items))
		for i, item := range s.items {
			kernel[i] = &ReportItem{
				Production: item.prod.num.Int(),
				Dot:        item.dot,
			}
		}
		sort.Slice(kernel, func(i, j int) bool {
			if kernel[i].Production != kernel[j].Production {
				return kernel[i].Production < kernel[j].Production
			}
			return kernel[i].Dot < kernel[j].Dot
		})

		rs := &ReportState{
			Number:    s.num.Int(),
			Kernel:    kernel,
			Conflicts: conflicts[s.num.Int()],
		}

	TERMINALS_LOOP:
		for term := 1; term < b.termCount; term++ {
			act, next, prod := b.actionTable[s.num.Int()*b.termCount+term].describe()
			switch act {
			case ActionTypeShift:
				rs.Shift = append(rs.Shift, &ReportTransition{
					Symbol: term,
					State:  next.Int(),
				})
			case ActionTypeAccept:
				rs.Accept = true
			case ActionTypeReduce:
				for _, r := range rs.Reduce {
					if r.Production == prod.Int() {
						r.LookAhead = append(r.LookAhead, term)
						continue TERMINALS_LOOP
					}
				}
				rs.Reduce = append(rs.Reduce, &ReportReduce{
					LookAhead:  []int{term},
					Production: prod.Int(),
				})
			}
		}
		for nonTerm := 1; nonTerm < b.nonTermCount; nonTerm++ {
			next := b.goToTable[s.num.Int()*b.nonTermCount+nonTerm]
			if next == goToEntryEmpty {
				continue
			}
			rs.GoTo = append(rs.GoTo, &ReportTransition{
				Symbol: nonTerm,
				State:  int(next),
			})
		}
		sort.Slice(rs.Shift, func(i, j int) bool {
			return rs.Shift[i].State < rs.Shift[j].State
		})
		sort.Slice(rs.Reduce, func(i, j int) bool {
			return rs.Reduce[i].Production < rs.Reduce[j].Production
		})
		sort.Slice(rs.GoTo, func(i, j int) bool {
			return rs.GoTo[i].State < rs.GoTo[j].State
		})

		states[s.num] = rs
	}

	return &Report{
		Name:         gram.name,
		Class:        b.class,
		Terminals:    terms,
		NonTerminals: nonTerms,
		Productions:  prods,
		States:       states,
		Conflicts:    b.conflicts,
		TableSize:    len(b.actionTable) + len(b.goToTable),
	}, nil
}

const reportTemplate = `# {{ .Name }} ({{ .Class }})

{{ printSummary . }}

# Conflicts

{{ printConflictSummary . }}
{{ range .Conflicts -}}
{{ printConflict . }}
{{ end }}
# Terminals

{{ range slice .Terminals 1 -}}
{{ printTerminal . }}
{{ end }}
# Productions

{{ range slice .Productions 1 -}}
{{ printProduction . }}
{{ end }}
# States
{{ range .States }}
## State {{ .Number }}

{{ range .Kernel -}}
{{ printItem . }}
{{ end }}
{{ range .Shift -}}
{{ printShift . }}
{{ end -}}
{{ range .Reduce -}}
{{ printReduce . }}
{{ end -}}
{{ if .Accept -}}
accept      on <eof>
{{ end -}}
{{ range .GoTo -}}
{{ printGoTo . }}
{{ end }}
{{- range .Conflicts -}}
{{ printConflict . }}
{{ end -}}
{{ end }}`

// WriteReport prints a report in a readable format.
func WriteReport(w io.Writer, report *Report) error {
	termName := func(sym int) string {
		return report.Terminals[sym].Name
	}

	nonTermName := func(sym int) string {
		return report.NonTerminals[sym].Name
	}

	writeSymbols := func(b *strings.Builder, rhs []int, dot int) {
		for i, e := range rhs {
			if i == dot {
				fmt.Fprintf(b, " ・")
			}
			if e > 0 {
				fmt.Fprintf(b, " %v", termName(e))
			} else {
				fmt.Fprintf(b, " %v", nonTermName(e*-1))
			}
		}
	}

	fns := template.FuncMap{
		"printSummary": func(report *Report) string {
			return fmt.Sprintf("%v terminals, %v non-terminals, %v productions, %v states\ntable: %v cells, compressed to %v integers",
				len(report.Terminals)-1, len(report.NonTerminals)-1, len(report.Productions)-1, len(report.States),
				report.TableSize, report.CompressedSize)
		},
		"printConflictSummary": func(report *Report) string {
			switch len(report.Conflicts) {
			case 0:
				return "No conflict"
			case 1:
				return "1 conflict occurred."
			}
			return fmt.Sprintf("%v conflicts occurred.", len(report.Conflicts))
		},
		"printConflict": func(c *Conflict) string {
			return c.String()
		},
		"printTerminal": func(term *ReportTerminal) string {
			return fmt.Sprintf("%4v %v", term.Number, term.Name)
		},
		"printProduction": func(prod *ReportProduction) string {
			var b strings.Builder
			fmt.Fprintf(&b, "%v →", nonTermName(prod.LHS))
			if len(prod.RHS) > 0 {
				writeSymbols(&b, prod.RHS, -1)
			} else {
				fmt.Fprintf(&b, " ε")
			}
			return fmt.Sprintf("%4v %v", prod.Number, b.String())
		},
		"printItem": func(item *ReportItem) string {
			prod := report.Productions[item.Production]

			var b strings.Builder
			fmt.Fprintf(&b, "%v →", nonTermName(prod.LHS))
			writeSymbols(&b, prod.RHS, item.Dot)
			if item.Dot >= len(prod.RHS) {
				fmt.Fprintf(&b, " ・")
			}

			return fmt.Sprintf("%4v %v", prod.Number, b.String())
		},
		"printShift": func(tran *ReportTransition) string {
			return fmt.Sprintf("shift  %4v on %v", tran.State, termName(tran.Symbol))
		},
		"printReduce": func(reduce *ReportReduce) string {
			names := make([]string, len(reduce.LookAhead))
			for i, a := range reduce.LookAhead {
				names[i] = termName(a)
			}
			return fmt.Sprintf("reduce %4v on %v", reduce.Production, strings.Join(names, ", "))
		},
		"printGoTo": func(tran *ReportTransition) string {
			return fmt.Sprintf("goto   %4v on %v", tran.State, nonTermName(tran.Symbol))
		},
	}

	tmpl, err := template.New("").Funcs(fns).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, report)
}
