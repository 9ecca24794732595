package module

import (
	"sigscore/internal/services/scoring/domain"
)

// Ports exposes the scoring surface other modules may depend on
type Ports struct {
	Scores domain.ServicePort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
