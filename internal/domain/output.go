package domain

import "strings"

// OutputKind discriminates the two shapes of raw tool output.
type OutputKind int

const (
	OutputPlainText OutputKind = iota
	OutputFragments
)

// Fragment is one content-bearing piece of a structured tool message.
type Fragment struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ToolOutput is the sum-typed raw output of a tool invocation: either a
// plain string or an ordered list of content fragments. The normalizer
// consumes both shapes uniformly.
type ToolOutput struct {
	kind      OutputKind
	text      string
	fragments []Fragment
}

// PlainText wraps a plain string output.
func PlainText(s string) ToolOutput {
	return ToolOutput{kind: OutputPlainText, text: s}
}

// FragmentList wraps a structured fragment output.
func FragmentList(frags ...Fragment) ToolOutput {
	return ToolOutput{kind: OutputFragments, fragments: frags}
}

// Kind returns the variant tag.
func (o ToolOutput) Kind() OutputKind { return o.kind }

// Flatten concatenates all text-bearing content into a single blob.
func (o ToolOutput) Flatten() string {
	if o.kind == OutputPlainText {
		return o.text
	}
	var b strings.Builder
	for _, f := range o.fragments {
		if f.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(f.Text)
	}
	return b.String()
}

// Empty reports whether the output carries no text at all.
func (o ToolOutput) Empty() bool {
	return strings.TrimSpace(o.Flatten()) == ""
}
