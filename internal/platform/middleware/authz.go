// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/taibuivan/bookshelf-users/internal/platform/ctxutil"
	"github.com/taibuivan/bookshelf-users/internal/platform/respond"
	"github.com/taibuivan/bookshelf-users/internal/platform/sec"
)

// # Requirements

// Requirement decides whether a (possibly nil) principal may proceed.
type Requirement interface {
	Allows(principal *sec.Principal) bool
	String() string
}

type permitAll struct{}

func (permitAll) Allows(*sec.Principal) bool { return true }
func (permitAll) String() string             { return "public" }

type authenticated struct{}

func (authenticated) Allows(principal *sec.Principal) bool { return principal != nil }
func (authenticated) String() string                       { return "authenticated" }

type anyRole []string

func (roles anyRole) Allows(principal *sec.Principal) bool {
	return principal != nil && principal.HasAnyAuthority(roles...)
}

func (roles anyRole) String() string { return "any_role(" + strings.Join(roles, ",") + ")" }

// PermitAll admits every request, anonymous or not.
func PermitAll() Requirement { return permitAll{} }

// Authenticated admits any request carrying a principal.
func Authenticated() Requirement { return authenticated{} }

// AnyRole admits principals holding at least one of roles.
func AnyRole(roles ...string) Requirement { return anyRole(roles) }

// # Rules

// Rule binds path patterns and methods to a [Requirement].
//
// A pattern ending in "/**" matches the prefix itself and every path below
// it; other patterns use [path.Match] syntax. An empty Methods list matches
// every method.
type Rule struct {
	Patterns    []string
	Methods     []string
	Requirement Requirement
}

// Matches reports whether the rule applies to method and cleaned urlPath.
func (rule Rule) Matches(method, urlPath string) bool {
	if len(rule.Methods) > 0 && !containsFold(rule.Methods, method) {
		return false
	}
	for _, pattern := range rule.Patterns {
		if matchPattern(pattern, urlPath) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, urlPath string) bool {
	if prefix, isSubtree := strings.CutSuffix(pattern, "/**"); isSubtree {
		return urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/")
	}
	matched, err := path.Match(pattern, urlPath)
	return err == nil && matched
}

func containsFold(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(value, target) {
			return true
		}
	}
	return false
}

// # Policy

// Policy is an ordered rule table. The first matching rule decides; a
// request no rule matches is denied.
type Policy struct {
	rules []Rule
}

// NewPolicy builds a policy evaluating rules in the given order.
func NewPolicy(rules ...Rule) *Policy {
	return &Policy{rules: rules}
}

// DefaultPolicy returns the route table of the user service.
//
// The role rule on /users/** sits behind the authenticated rule for the same
// patterns and therefore never decides a request; it is kept so the table
// lists every requirement the routes were designed with.
func DefaultPolicy() *Policy {
	return NewPolicy(
		Rule{Patterns: []string{"/users/login", "/users/register"}, Requirement: PermitAll()},
		Rule{Patterns: []string{"/graphql"}, Requirement: PermitAll()},
		Rule{Patterns: []string{"/health", "/ready"}, Methods: []string{http.MethodGet}, Requirement: PermitAll()},
		Rule{Patterns: []string{"/users/**"}, Requirement: Authenticated()},
		Rule{Patterns: []string{"/users/**"}, Requirement: AnyRole(sec.RoleUser, sec.RoleAdmin)},
	)
}

// Decide returns the deciding rule's verdict for the request, and the rule
// index (-1 when nothing matched).
func (policy *Policy) Decide(method, urlPath string, principal *sec.Principal) (bool, int) {
	cleaned := cleanPath(urlPath)
	for index, rule := range policy.rules {
		if rule.Matches(method, cleaned) {
			return rule.Requirement.Allows(principal), index
		}
	}
	return false, -1
}

func cleanPath(urlPath string) string {
	if urlPath == "" {
		return "/"
	}
	if !strings.HasPrefix(urlPath, "/") {
		urlPath = "/" + urlPath
	}
	return path.Clean(urlPath)
}

// Authorize enforces policy after [Authenticate] has run.
//
// Denied requests receive 403 with an empty body, whether or not a principal
// is present.
func Authorize(policy *Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal := ctxutil.GetPrincipal(request.Context())

			allowed, ruleIndex := policy.Decide(request.Method, request.URL.Path, principal)
			if !allowed {
				ctxutil.GetLogger(request.Context()).DebugContext(request.Context(), "access_denied",
					slog.Int("rule", ruleIndex),
					slog.Bool("authenticated", principal != nil),
				)
				respond.Status(writer, http.StatusForbidden)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
