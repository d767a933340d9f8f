// Package command maps inbound chat commands onto ledger operations.
package command

import "strings"

// Kind enumerates the command surface.
type Kind int

const (
	Unknown Kind = iota
	SignIn
	SignInQuery
	Deposit
	Withdraw
	Hire
	Sell
	Redeem
	Leaderboard
)

var kindNames = map[Kind]string{
	SignIn:      "sign-in",
	SignInQuery: "sign-in-query",
	Deposit:     "deposit",
	Withdraw:    "withdraw",
	Hire:        "hire",
	Sell:        "sell",
	Redeem:      "redeem",
	Leaderboard: "leaderboard",
}

// aliases include the chat trigger words used by existing groups.
var aliases = map[string]Kind{
	"签到":   SignIn,
	"签到查询": SignInQuery,
	"存款":   Deposit,
	"取款":   Withdraw,
	"购买":   Hire,
	"出售":   Sell,
	"赎身":   Redeem,
	"排行榜":  Leaderboard,
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Lookup resolves a command name or alias, ignoring a leading slash and case.
func Lookup(name string) (Kind, bool) {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	if k, ok := aliases[name]; ok {
		return k, true
	}
	return Unknown, false
}

// Request is one resolved inbound command.
type Request struct {
	Kind     Kind
	Group    string
	Sender   string
	Mentions []string
	Args     []string
}

// Target is the first mentioned user.
func (r Request) Target() string {
	if len(r.Mentions) == 0 {
		return ""
	}
	return r.Mentions[0]
}

// Arg returns the i-th argument or "".
func (r Request) Arg(i int) string {
	if i < len(r.Args) {
		return r.Args[i]
	}
	return ""
}
