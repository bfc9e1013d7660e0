package console

import (
	"fmt"
	"time"

	"github.com/esdalmaijer/MPyDev/pkg/biopac"
	"github.com/esdalmaijer/MPyDev/pkg/output"
)

type ConsoleOutput struct{}

func NewConsole() output.Output { return &ConsoleOutput{} }

func (c *ConsoleOutput) Publish(readings []biopac.Reading) error {
	for _, r := range readings {
		fmt.Printf("%s channel=%d value=%.6f\n", r.Timestamp.Format(time.RFC3339), r.Channel, r.Value)
	}
	return nil
}

func (c *ConsoleOutput) Close() error { return nil }
