package parser

import (
	"go/ast"
	"strings"
)

const directivePrefix = "//autoctor:"

// Directive names recognised in doc comments.
const (
	DirectiveConstruct     = "construct"     // on a struct type, optional post-construct method name
	DirectivePostConstruct = "postconstruct" // on a method
	DirectiveDefault       = "default"       // on the package clause, default post-construct method name
)

// directives extracts //autoctor:name [arg] lines from a comment group.
// CommentGroup.Text drops directive lines, so the raw list is scanned.
func directives(cg *ast.CommentGroup) map[string]string {
	if cg == nil {
		return nil
	}
	var out map[string]string
	for _, c := range cg.List {
		rest, ok := strings.CutPrefix(c.Text, directivePrefix)
		if !ok {
			continue
		}
		name, arg, _ := strings.Cut(strings.TrimSpace(rest), " ")
		if name == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[name] = strings.TrimSpace(arg)
	}
	return out
}

func hasDirective(cg *ast.CommentGroup, name string) (string, bool) {
	arg, ok := directives(cg)[name]
	return arg, ok
}
