package module

import (
	"sigscore/internal/services/alerts/domain"
)

// Ports exposes the alerting surface other modules may depend on
type Ports struct {
	Rules domain.ServicePort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
