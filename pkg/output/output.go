package output

import "github.com/esdalmaijer/MPyDev/pkg/biopac"

type Output interface {
	Publish([]biopac.Reading) error
	Close() error
}

// constructors live in the subpackages
