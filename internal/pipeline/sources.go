package pipeline

import (
	"context"

	"github.com/ernestobalbinse/HurriAid/internal/domain"
)

// AdvisorySource loads the current storm advisory.
type AdvisorySource interface {
	LoadAdvisory(ctx context.Context) (domain.Advisory, error)
}

// ShelterSource loads the shelter directory.
type ShelterSource interface {
	LoadShelters(ctx context.Context) ([]domain.Shelter, error)
}

// Sources is the set of inputs used for one assessment.
type Sources struct {
	Advisory AdvisorySource
	Shelters ShelterSource
	ZIPs     domain.ZIPResolver
}

// SourceSet holds the offline (local files) and online (remote) sources.
// Any online source left nil falls back to its offline counterpart.
type SourceSet struct {
	Offline Sources
	Online  Sources
}

// Select returns the sources for the requested mode.
func (s SourceSet) Select(offline bool) Sources {
	if offline {
		return s.Offline
	}
	out := s.Online
	if out.Advisory == nil {
		out.Advisory = s.Offline.Advisory
	}
	if out.Shelters == nil {
		out.Shelters = s.Offline.Shelters
	}
	if out.ZIPs == nil {
		out.ZIPs = s.Offline.ZIPs
	}
	return out
}
