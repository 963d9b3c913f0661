package registry

import (
	"strconv"

	"github.com/openeduhub/kidra/internal/domain"
)

// DefaultBasePort is the value the built-in catalogue counts up from.
// The first service gets DefaultBasePort+1.
const DefaultBasePort = 1986

// PortSequence hands out consecutive local ports.
// It is passed explicitly to whoever builds descriptors; there is no global counter.
type PortSequence struct {
	current int
}

// NewPortSequence starts a sequence whose first Next() returns base+1.
func NewPortSequence(base int) *PortSequence {
	return &PortSequence{current: base}
}

// Next advances the sequence and returns the new port.
func (p *PortSequence) Next() string {
	p.current++
	return p.Current()
}

// Current returns the most recently assigned port, used by services
// that are served by the same process as the previous one.
func (p *PortSequence) Current() string {
	return strconv.Itoa(p.current)
}

// DefaultCatalogue returns the services bundled with the gateway, in boot order.
func DefaultCatalogue(ports *PortSequence) []domain.ServiceDescriptor {
	textStatistics := domain.NewDescriptor("text-statistics", "text-statistics", "localhost", ports.Next(), "analyze-text")

	disciplines := domain.NewDescriptor("disciplines", "wlo-classification", "localhost", ports.Next(), "predict_subjects")

	keywords := domain.NewDescriptor("topic-assistant-keywords", "wlo-topic-assistant", "localhost", ports.Next(), "topics")
	keywords.BootTimeout = 0

	// served by the topic assistant process started above
	embeddings := domain.NewDescriptor("topic-assistant-embeddings", "", "localhost", ports.Current(), "topics2")
	embeddings.Autostart = false

	// third-party service, not launched by the gateway; it expects plain text
	// and does not report a version
	wikipedia := domain.NewDescriptor("link-wikipedia", "", "wlo.yovisto.com/services", "", "extract")
	wikipedia.Autostart = false
	wikipedia.RawTextField = "text"
	wikipedia.ResponseDefaults = map[string]any{"version": "0.1.0"}

	return []domain.ServiceDescriptor{textStatistics, disciplines, keywords, embeddings, wikipedia}
}
