package session

import (
	"github.com/pigletlabs/peppavoice/internal/config"
	"github.com/pigletlabs/peppavoice/internal/notify"
	"github.com/pigletlabs/peppavoice/internal/repository"
	"github.com/pigletlabs/peppavoice/internal/room"
	"github.com/pigletlabs/peppavoice/internal/task"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		rooms := do.MustInvoke[room.Client](i)
		runner := do.MustInvoke[*task.Runner](i)
		notifier := do.MustInvoke[notify.Sender](i)
		return NewManager(cfg, repo, rooms, runner, notifier), nil
	})
}
