// Package filter decides which crawl targets reach the reader.
package filter

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/bakkerme/curator-crawler/internal/core"
)

// Rule is a compiled boolean expression evaluated against each target.
// A target is kept when the expression returns true.
//
// Available fields: url, scheme, host, path, query, title, source, excerpt, published_at, age_hours.
type Rule struct {
	source  string
	program *vm.Program
	now     func() time.Time
}

// Compile parses expression. An empty expression keeps every target.
func Compile(expression string) (*Rule, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return &Rule{now: time.Now}, nil
	}
	program, err := expr.Compile(expression, expr.Env(ruleEnv(core.Target{}, time.Now())), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter rule: %w", err)
	}
	return &Rule{source: expression, program: program, now: time.Now}, nil
}

func (r *Rule) String() string { return r.source }

// Keep reports whether target passes the rule.
func (r *Rule) Keep(target core.Target) (bool, error) {
	if r == nil || r.program == nil {
		return true, nil
	}
	out, err := expr.Run(r.program, ruleEnv(target, r.now()))
	if err != nil {
		return false, fmt.Errorf("evaluate filter rule on %s: %w", target.URL, err)
	}
	keep, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("filter rule returned %T, want bool", out)
	}
	return keep, nil
}

func ruleEnv(target core.Target, now time.Time) map[string]interface{} {
	env := map[string]interface{}{
		"url":          target.URL,
		"scheme":       "",
		"host":         "",
		"path":         "",
		"query":        "",
		"title":        target.Title,
		"source":       target.Source,
		"excerpt":      target.Excerpt,
		"published_at": target.PublishedAt,
		"age_hours":    0.0,
	}
	if u, err := url.Parse(target.URL); err == nil {
		env["scheme"] = u.Scheme
		env["host"] = u.Hostname()
		env["path"] = u.Path
		env["query"] = u.RawQuery
	}
	if !target.PublishedAt.IsZero() {
		env["age_hours"] = now.Sub(target.PublishedAt).Hours()
	}
	return env
}
