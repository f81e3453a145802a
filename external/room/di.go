package room

import (
	"github.com/pigletlabs/peppavoice/internal/config"
	"github.com/pigletlabs/peppavoice/internal/room"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (room.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewWSClient(cfg.RoomServerURL, cfg.RoomName, cfg.RoomToken), nil
	})
}
