package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docchat/internal/ratelimit"
)

// CooldownSweep drops cooldown entries whose window has passed, keeping the
// in-memory map bounded over long uptimes.
type CooldownSweep struct {
	cooldown *ratelimit.Cooldown
}

func NewCooldownSweep(cooldown *ratelimit.Cooldown) *CooldownSweep {
	return &CooldownSweep{cooldown: cooldown}
}

func (j *CooldownSweep) Name() string {
	return "cooldown_sweep"
}

func (j *CooldownSweep) Run(ctx context.Context) error {
	removed := j.cooldown.Sweep()
	if removed > 0 {
		logutil.GetLogger(ctx).Info("cooldown entries swept", zap.Int("removed", removed))
	}
	return nil
}
