package usecase

import (
	"github.com/secmon-lab/idconsole/pkg/domain/interfaces"
	"github.com/secmon-lab/idconsole/pkg/service/spectro"
)

type UseCases struct {
	repo      interfaces.Repository
	syncOpts  []SyncOption
	dashOpts  []DashboardOption
	Sync      *SyncUseCase
	Dashboard *DashboardUseCase
}

type Option func(*UseCases)

func WithSyncOptions(opts ...SyncOption) Option {
	return func(uc *UseCases) {
		uc.syncOpts = append(uc.syncOpts, opts...)
	}
}

func WithDashboardOptions(opts ...DashboardOption) Option {
	return func(uc *UseCases) {
		uc.dashOpts = append(uc.dashOpts, opts...)
	}
}

func New(repo interfaces.Repository, svc spectro.Service, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Sync = NewSyncUseCase(repo, svc, uc.syncOpts...)
	uc.Dashboard = NewDashboardUseCase(uc.Sync, uc.dashOpts...)

	return uc
}
