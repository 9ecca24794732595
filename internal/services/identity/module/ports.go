package module

import (
	"sigscore/internal/services/identity/domain"
)

// Ports exposes the identity surface other modules may depend on
type Ports struct {
	Resolver domain.ServicePort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
