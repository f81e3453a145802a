package task

import (
	"github.com/pigletlabs/peppavoice/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Runner, error) {
		cfg := do.MustInvoke[*config.Config](i)
		r := NewRunner(cfg.TaskQueueSize, cfg.TaskWorkers)
		r.Start()
		return r, nil
	})
}
