package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Operation names a role-gated action.
type Operation string

const (
	OpArticleCreate  Operation = "article.create"
	OpArticleUpdate  Operation = "article.update"
	OpArticleDelete  Operation = "article.delete"
	OpArticleVerify  Operation = "article.verify"
	OpArticleStatus  Operation = "article.status"
	OpArticleListAll Operation = "article.list_all"
	OpMediaUpload    Operation = "media.upload"
	OpUserList       Operation = "user.list"
	OpUserSearch     Operation = "user.search"
	OpUserStatus     Operation = "user.status"
	OpReporterInvite Operation = "reporter.invite"
	OpUserStats      Operation = "stats.users"
	OpArticleStats   Operation = "stats.articles"
	OpCommentCreate  Operation = "comment.create"
	OpAvatarUpload   Operation = "avatar.upload"
)

// Roles are compared by strict equality: there is no hierarchy, so admin
// is not implicitly a reporter.
const policyModel = `
[request_definition]
r = sub, act

[policy_definition]
p = sub, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.act == p.act
`

var defaultGrants = map[Operation][]string{
	OpArticleCreate:  {"admin", "reporter"},
	OpArticleUpdate:  {"admin", "reporter"},
	OpMediaUpload:    {"admin", "reporter"},
	OpArticleDelete:  {"admin"},
	OpArticleVerify:  {"admin"},
	OpArticleStatus:  {"admin"},
	OpArticleListAll: {"admin"},
	OpUserList:       {"admin"},
	OpUserSearch:     {"admin"},
	OpUserStatus:     {"admin"},
	OpReporterInvite: {"admin"},
	OpUserStats:      {"admin", "reporter"},
	OpArticleStats:   {"admin", "reporter"},
	OpCommentCreate:  {"admin", "reporter", "user"},
	OpAvatarUpload:   {"admin", "reporter", "user"},
}

// Policy maps (role, operation) to allowed.
type Policy struct {
	enforcer *casbin.Enforcer
}

func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("policy model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("policy enforcer: %w", err)
	}

	rules := make([][]string, 0, len(defaultGrants)*2)
	for op, roles := range defaultGrants {
		for _, role := range roles {
			rules = append(rules, []string{role, string(op)})
		}
	}
	if _, err := enforcer.AddPolicies(rules); err != nil {
		return nil, fmt.Errorf("policy rules: %w", err)
	}
	return &Policy{enforcer: enforcer}, nil
}

// Allowed reports whether role may perform op. Errors fail closed.
func (p *Policy) Allowed(role string, op Operation) bool {
	if role == "" {
		return false
	}
	ok, err := p.enforcer.Enforce(role, string(op))
	if err != nil {
		return false
	}
	return ok
}
