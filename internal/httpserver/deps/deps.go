package deps

import (
	"time"

	"github.com/openeduhub/kidra/internal/forward"
	"github.com/openeduhub/kidra/internal/index"
	"github.com/openeduhub/kidra/internal/logger"
	"github.com/openeduhub/kidra/internal/metrics"
	"github.com/openeduhub/kidra/internal/registry"
	"github.com/openeduhub/kidra/internal/schema"
	redisstore "github.com/openeduhub/kidra/internal/store/redis"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed to access /reload
	AllowedCIDRS []string         // IPs allowed to access the operational endpoints
	TrustProxy   bool             // true if running behind a trusted reverse proxy

	RoutingMode  string                // config.RoutingDynamic or config.RoutingStatic
	Registry     *registry.Registry    // registered backends
	Forwarder    *forward.Client       // relays POST bodies to backends
	Schema       *schema.Aggregator    // merged API document
	Metrics      *metrics.Metrics      // Prometheus collectors (nil = /metrics disabled)
	StatusIndex  *index.StatusIndex    // latest health sweep
	UsageStore   *redisstore.Store     // usage statistics (nil if Redis is not configured)
	SweepTrigger chan struct{}         // triggers a manual health sweep
}
