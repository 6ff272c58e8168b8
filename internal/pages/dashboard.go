package pages

import (
	"context"

	"github.com/phillip-england/hrmlite/internal/hrmapi"
	"github.com/phillip-england/hrmlite/internal/viewstate"
	"golang.org/x/sync/errgroup"
)

type DashboardAPI interface {
	GetDashboard(ctx context.Context) (hrmapi.Dashboard, error)
	RecentAttendance(ctx context.Context) ([]hrmapi.RecentAttendance, error)
}

type DashboardData struct {
	Stats  hrmapi.Dashboard
	Recent []hrmapi.RecentAttendance
}

type DashboardPage struct {
	api  DashboardAPI
	Data *viewstate.Store[DashboardData]
}

func NewDashboardPage(api DashboardAPI, opts ...viewstate.Option) *DashboardPage {
	return &DashboardPage{
		api:  api,
		Data: viewstate.NewStore[DashboardData]("Failed to load dashboard.", opts...),
	}
}

func (p *DashboardPage) Mount(ctx context.Context) error {
	return p.Refresh(ctx)
}

// Refresh loads the counts and the recent list together; either failing
// fails the page.
func (p *DashboardPage) Refresh(ctx context.Context) error {
	return p.Data.Refresh(ctx, p.fetch)
}

func (p *DashboardPage) View() viewstate.Snapshot[DashboardData] {
	return p.Data.Snapshot()
}

func (p *DashboardPage) fetch(ctx context.Context) (DashboardData, error) {
	var data DashboardData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := p.api.GetDashboard(gctx)
		if err != nil {
			return err
		}
		data.Stats = stats
		return nil
	})
	g.Go(func() error {
		recent, err := p.api.RecentAttendance(gctx)
		if err != nil {
			return err
		}
		data.Recent = recent
		return nil
	})
	if err := g.Wait(); err != nil {
		return DashboardData{}, err
	}
	return data, nil
}
