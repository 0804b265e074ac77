package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"emergencyworldwide/internal/app/ports"
	"emergencyworldwide/internal/domain/economy"
	"emergencyworldwide/internal/domain/fleet"
)

// UseCase owns the progression record. Every operation is one
// read-modify-write inside TxManager, so concurrent callers serialize.
type UseCase struct {
	TxManager       ports.TxManager
	Progression     ports.ProgressionRepository
	Rules           economy.Rules
	SeasonPassPrice int64
	Now             func() time.Time
}

// Settlement is the outcome of paying out a mission reward.
type Settlement struct {
	Award    economy.Award       `json:"award"`
	Currency int64               `json:"currency_gained"`
	State    economy.Progression `json:"state"`
}

func (u UseCase) State(ctx context.Context) (economy.Progression, error) {
	var out economy.Progression
	err := u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := u.load(txCtx)
		out = p
		return err
	})
	return out, err
}

func (u UseCase) Debit(ctx context.Context, amount int64) (economy.Progression, error) {
	return u.mutate(ctx, func(p economy.Progression) (economy.Progression, error) {
		return p.Debit(amount)
	})
}

func (u UseCase) Credit(ctx context.Context, amount int64) (economy.Progression, error) {
	return u.mutate(ctx, func(p economy.Progression) (economy.Progression, error) {
		return p.Credit(amount)
	})
}

// AwardProgress adds baseXP, doubled when seasonActive, and returns the award.
func (u UseCase) AwardProgress(ctx context.Context, baseXP int64, seasonActive bool) (economy.Award, error) {
	var award economy.Award
	_, err := u.mutate(ctx, func(p economy.Progression) (economy.Progression, error) {
		next, a := u.Rules.Award(p, baseXP, seasonActive)
		award = a
		return next, nil
	})
	return award, err
}

func (u UseCase) PurchaseSeasonPass(ctx context.Context) (economy.Progression, error) {
	return u.mutate(ctx, func(p economy.Progression) (economy.Progression, error) {
		return p.PurchaseSeasonPass(u.SeasonPassPrice)
	})
}

// AccrueIncome pays the income owed since the last payout and returns the amount.
func (u UseCase) AccrueIncome(ctx context.Context) (int64, error) {
	var paid int64
	err := u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := u.load(txCtx)
		if err != nil {
			return err
		}
		next, amount := u.Rules.AccrueIncome(p, u.now())
		if amount == 0 && next.LastIncomeAt.Equal(p.LastIncomeAt) {
			return nil
		}
		paid = amount
		_, err = u.save(txCtx, p, next)
		return err
	})
	return paid, err
}

// Settle awards a mission reward: XP through the rank and season tracks,
// doubled by the season pass, plus currency and the completion counter.
func (u UseCase) Settle(ctx context.Context, reward fleet.Reward) (Settlement, error) {
	if reward.XP < 0 || reward.Currency < 0 {
		return Settlement{}, fmt.Errorf("%w: reward %+v", economy.ErrInvalidAmount, reward)
	}
	var award economy.Award
	state, err := u.mutate(ctx, func(p economy.Progression) (economy.Progression, error) {
		next, a := u.Rules.Award(p, reward.XP, p.SeasonPass)
		next, err := next.Credit(reward.Currency)
		if err != nil {
			return p, err
		}
		next.MissionsCompleted++
		award = a
		return next, nil
	})
	if err != nil {
		return Settlement{}, err
	}
	return Settlement{Award: award, Currency: reward.Currency, State: state}, nil
}

func (u UseCase) RecordExpired(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	_, err := u.mutate(ctx, func(p economy.Progression) (economy.Progression, error) {
		p.MissionsExpired += int64(n)
		return p, nil
	})
	return err
}

func (u UseCase) mutate(ctx context.Context, fn func(p economy.Progression) (economy.Progression, error)) (economy.Progression, error) {
	var out economy.Progression
	err := u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := u.load(txCtx)
		if err != nil {
			return err
		}
		next, err := fn(p)
		if err != nil {
			return err
		}
		out, err = u.save(txCtx, p, next)
		return err
	})
	return out, err
}

// load returns the record, creating it with the starting budget on first access.
func (u UseCase) load(ctx context.Context) (economy.Progression, error) {
	p, err := u.Progression.Get(ctx)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return economy.Progression{}, err
	}
	p = u.Rules.NewProgression(u.now())
	p.Version = 1
	if err := u.Progression.SaveWithVersion(ctx, p, 0); err != nil {
		return economy.Progression{}, fmt.Errorf("init progression: %w", err)
	}
	return p, nil
}

func (u UseCase) save(ctx context.Context, prev, next economy.Progression) (economy.Progression, error) {
	next.Version = prev.Version + 1
	next.UpdatedAt = u.now()
	if err := u.Progression.SaveWithVersion(ctx, next, prev.Version); err != nil {
		return economy.Progression{}, err
	}
	return next, nil
}

func (u UseCase) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}
