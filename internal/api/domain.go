package api

import (
	"github.com/JaimeStill/patentbot/internal/cases"
	"github.com/JaimeStill/patentbot/internal/documents"
	"github.com/JaimeStill/patentbot/internal/resolution"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Cases      cases.System
	Documents  documents.System
	Resolution resolution.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	docsSystem := documents.New(db, runtime.Storage, runtime.Logger)

	casesSystem := cases.New(
		db,
		docsSystem,
		runtime.Backend,
		runtime.Logger,
		runtime.Pagination,
		runtime.MaxUploadSize,
		runtime.ProgressTTL,
	)

	resolutionSystem := resolution.New(
		resolution.NewStore(db),
		runtime.Backend,
		runtime.Logger,
	)

	return &Domain{
		Cases:      casesSystem,
		Documents:  docsSystem,
		Resolution: resolutionSystem,
	}
}
