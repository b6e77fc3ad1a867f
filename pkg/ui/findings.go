package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/waftester/jsenum/pkg/report"
)

// PrintReport writes a human readable view of r to w: one bracketed line
// per finding followed by a short statistics block.
func PrintReport(w io.Writer, r *report.Report) {
	if r == nil {
		return
	}
	printKind(w, "endpoint", r.Endpoints)
	printKind(w, "param", r.Parameters)
	printKind(w, "token", r.Tokens)
	if r.GraphQLUsed {
		fmt.Fprintln(w, bracket("graphql")+" "+ConfigValueStyle.Render("GraphQL usage detected"))
	}

	if len(r.Fuzzed) > 0 {
		eps := make([]string, 0, len(r.Fuzzed))
		for ep := range r.Fuzzed {
			eps = append(eps, ep)
		}
		sort.Strings(eps)
		for _, ep := range eps {
			fmt.Fprintf(w, "%s %s %s\n",
				bracket("fuzz"),
				URLStyle.Render(ep),
				BracketStyle.Render("["+strings.Join(r.Fuzzed[ep], ",")+"]"))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %s  %s %s  %s %s\n",
		StatLabelStyle.Render("Endpoints:"), StatValueStyle.Render(fmt.Sprint(len(r.Endpoints))),
		StatLabelStyle.Render("Parameters:"), StatValueStyle.Render(fmt.Sprint(len(r.Parameters))),
		StatLabelStyle.Render("Tokens:"), StatValueStyle.Render(fmt.Sprint(len(r.Tokens))))
	if s := r.Stats; s != nil {
		fmt.Fprintf(w, "  %s %d/%d fetched, %d failed, %d ignored, %d inline\n",
			StatLabelStyle.Render("Scripts:"),
			s.ScriptsFetched, s.ScriptsDiscovered-s.ScriptsIgnored, s.ScriptsFailed, s.ScriptsIgnored, s.InlineScripts)
		if s.ProbesSent > 0 {
			fmt.Fprintf(w, "  %s %d sent, %d accepted\n",
				StatLabelStyle.Render("Probes:"), s.ProbesSent, s.ProbesAccepted)
		}
		fmt.Fprintf(w, "  %s %dms\n", StatLabelStyle.Render("Duration:"), s.DurationMs)
	}
	if r.Partial {
		fmt.Fprintln(w, WarnStyle.Render("  [!] scan deadline reached, results are partial"))
	}
}

func printKind(w io.Writer, kind string, values []string) {
	for _, v := range values {
		fmt.Fprintln(w, bracket(kind)+" "+ConfigValueStyle.Render(v))
	}
}

func bracket(kind string) string {
	return BracketStyle.Render("[") + KindStyle(kind).Render(kind) + BracketStyle.Render("]")
}
