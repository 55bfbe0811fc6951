package view

import (
	"context"

	"bankpro/internal/api"
	"bankpro/internal/core"
)

type RewardsAPI interface {
	ListRewards(ctx context.Context, sess api.Session) ([]core.Reward, error)
}

type RewardsPage struct {
	Page
	Rewards []core.Reward

	api RewardsAPI
}

func NewRewardsPage(c RewardsAPI, env Env) *RewardsPage {
	return &RewardsPage{Page: newPage("rewards", env), api: c}
}

func (p *RewardsPage) Load(ctx context.Context) {
	rewards, err := p.api.ListRewards(ctx, p.Session)
	if err != nil {
		p.readFailed(ctx, "GET /rewards", err)
		return
	}
	p.Rewards = rewards
}

func (p *RewardsPage) TotalPoints() int64 {
	return core.TotalPoints(p.Rewards)
}
