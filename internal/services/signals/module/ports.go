package module

import (
	"sigscore/internal/services/signals/domain"
)

// Ports exposes the signals surface other modules may depend on
type Ports struct {
	Ingestor domain.ServicePort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
