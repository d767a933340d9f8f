package command

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/punchamoorthee/contractledger/internal/domain"
	"github.com/punchamoorthee/contractledger/internal/logging"
	"github.com/punchamoorthee/contractledger/internal/models"
	"github.com/punchamoorthee/contractledger/internal/service"
	"github.com/punchamoorthee/contractledger/internal/wealth"
)

type handlerFunc func(ctx context.Context, req Request) (*models.CommandResponse, error)

// Dispatcher routes a Request to its operation through a fixed table.
type Dispatcher struct {
	contracts *service.ContractLedger
	signin    *service.SignInEngine
	bank      *service.Bank
	query     *service.LeaderboardQuery
	wealth    *wealth.Model
	names     NameResolver
	log       logrus.FieldLogger
	table     map[Kind]handlerFunc
}

// Services groups the operations the dispatcher needs.
type Services struct {
	Contracts *service.ContractLedger
	SignIn    *service.SignInEngine
	Bank      *service.Bank
	Query     *service.LeaderboardQuery
	Wealth    *wealth.Model
}

func NewDispatcher(svc Services, names NameResolver, logger logrus.FieldLogger) *Dispatcher {
	if names == nil {
		names = FallbackNames{}
	}
	d := &Dispatcher{
		contracts: svc.Contracts,
		signin:    svc.SignIn,
		bank:      svc.Bank,
		query:     svc.Query,
		wealth:    svc.Wealth,
		names:     names,
		log:       logging.OrDefault(logger),
	}
	d.table = map[Kind]handlerFunc{
		SignIn:      d.signIn,
		SignInQuery: d.signInQuery,
		Deposit:     d.deposit,
		Withdraw:    d.withdraw,
		Hire:        d.hire,
		Sell:        d.sell,
		Redeem:      d.redeem,
		Leaderboard: d.leaderboard,
	}
	return d
}

// Dispatch runs req. When the ledger committed but persisting failed, both a
// response and the error are returned.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*models.CommandResponse, error) {
	h, ok := d.table[req.Kind]
	if !ok {
		return nil, domain.Validationf("unknown command")
	}
	if req.Group == "" {
		return nil, domain.Validationf("missing group")
	}
	if req.Sender == "" {
		return nil, domain.Validationf("missing sender")
	}
	resp, err := h(ctx, req)
	if err != nil {
		d.log.WithFields(logrus.Fields{
			"command": req.Kind.String(),
			"group":   req.Group,
			"sender":  req.Sender,
		}).WithError(err).Debug("command failed")
	}
	if resp != nil {
		resp.Command = req.Kind.String()
	}
	return resp, err
}

// card builds the renderer snapshot. It runs after the commit, outside the lock.
func (d *Dispatcher) card(ctx context.Context, group, user string, a *domain.Account) *models.Card {
	status := "free"
	if !a.IsFree() {
		status = "contracted"
	}
	names := make([]string, 0, len(a.Contractors))
	for _, c := range a.Contractors {
		names = append(names, d.names.DisplayName(ctx, group, c))
	}
	return &models.Card{
		UserID:          user,
		UserName:        d.names.DisplayName(ctx, group, user),
		Status:          status,
		Tier:            d.wealth.AccountTier(a).Name,
		Coins:           models.Round(a.Coins),
		Bank:            models.Round(a.Bank),
		Consecutive:     a.Consecutive,
		Contractors:     append([]string{}, a.Contractors...),
		ContractorNames: names,
	}
}

func (d *Dispatcher) signIn(ctx context.Context, req Request) (*models.CommandResponse, error) {
	c, err := d.signin.Claim(ctx, req.Group, req.Sender)
	if c == nil {
		return nil, err
	}
	card := d.card(ctx, req.Group, req.Sender, c.Account)
	card.Reward = models.Round(c.Reward)
	card.Interest = models.Round(c.Interest)
	return &models.CommandResponse{
		TxID:    c.TxID,
		Message: fmt.Sprintf("Signed in: +%.1f coins (interest %.1f), streak %d", c.Reward, c.Interest, c.Consecutive),
		Card:    card,
	}, err
}

func (d *Dispatcher) signInQuery(ctx context.Context, req Request) (*models.CommandResponse, error) {
	p := d.signin.Preview(req.Group, req.Sender)
	card := d.card(ctx, req.Group, req.Sender, p.Account)
	card.Query = true
	card.Preview = &models.PreviewBreakdown{
		Base:     models.Round(p.BaseWithBonus),
		Contract: models.Round(p.ContractBonus),
		Streak:   models.Round(p.StreakBonus),
		Interest: models.Round(p.ProjectedInterest),
		Total:    models.Round(p.Total),
	}
	return &models.CommandResponse{
		Message: fmt.Sprintf("Expected income: %.1f coins", p.Total),
		Card:    card,
	}, nil
}

func (d *Dispatcher) amount(req Request) (float64, error) {
	return service.ParseAmount(req.Arg(0))
}

func (d *Dispatcher) deposit(ctx context.Context, req Request) (*models.CommandResponse, error) {
	amount, err := d.amount(req)
	if err != nil {
		return nil, err
	}
	m, err := d.bank.Deposit(ctx, req.Group, req.Sender, amount)
	if m == nil {
		return nil, err
	}
	return &models.CommandResponse{
		TxID:    m.TxID,
		Message: fmt.Sprintf("Deposited %.1f coins", m.Amount),
	}, err
}

func (d *Dispatcher) withdraw(ctx context.Context, req Request) (*models.CommandResponse, error) {
	amount, err := d.amount(req)
	if err != nil {
		return nil, err
	}
	m, err := d.bank.Withdraw(ctx, req.Group, req.Sender, amount)
	if m == nil {
		return nil, err
	}
	return &models.CommandResponse{
		TxID:    m.TxID,
		Message: fmt.Sprintf("Withdrew %.1f coins", m.Amount),
	}, err
}

func (d *Dispatcher) hire(ctx context.Context, req Request) (*models.CommandResponse, error) {
	target := req.Target()
	if target == "" {
		return nil, domain.Validationf("mention the user to hire")
	}
	a, err := d.contracts.Acquire(ctx, req.Group, req.Sender, target)
	if a == nil {
		return nil, err
	}
	name := d.names.DisplayName(ctx, req.Group, target)
	msg := fmt.Sprintf("Hired %s for %.1f coins", name, a.Cost)
	if a.Takeover() {
		msg = fmt.Sprintf("Took over %s from %s for %.1f coins",
			name, d.names.DisplayName(ctx, req.Group, a.PreviousOwner), a.Cost)
	}
	return &models.CommandResponse{TxID: a.TxID, Message: msg}, err
}

func (d *Dispatcher) sell(ctx context.Context, req Request) (*models.CommandResponse, error) {
	target := req.Target()
	if target == "" {
		return nil, domain.Validationf("mention the user to sell")
	}
	r, err := d.contracts.Sell(ctx, req.Group, req.Sender, target)
	if r == nil {
		return nil, err
	}
	return &models.CommandResponse{
		TxID:    r.TxID,
		Message: fmt.Sprintf("Sold %s for %.1f coins", d.names.DisplayName(ctx, req.Group, target), r.Amount),
	}, err
}

func (d *Dispatcher) redeem(ctx context.Context, req Request) (*models.CommandResponse, error) {
	r, err := d.contracts.Redeem(ctx, req.Group, req.Sender)
	if r == nil {
		return nil, err
	}
	return &models.CommandResponse{
		TxID:    r.TxID,
		Message: fmt.Sprintf("Redeemed for %.1f coins", r.Cost),
	}, err
}

func (d *Dispatcher) leaderboard(ctx context.Context, req Request) (*models.CommandResponse, error) {
	top := d.query.Top(req.Group, service.LeaderboardSize)
	return &models.CommandResponse{
		Message:     fmt.Sprintf("Top %d by total wealth", len(top)),
		Leaderboard: top,
	}, nil
}
