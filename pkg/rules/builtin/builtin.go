// Package builtin provides the concrete rule variants shipped with autoflow:
// file moves, external commands, CSV data checks, and bulk mail spooling.
//
// Each variant validates its settings at construction time so bad
// configuration fails at bootstrap, and releases every acquired resource on
// all exit paths so a failing rule leaves no handles behind.
package builtin

import (
	"github.com/autoflow/autoflow/pkg/rules"
)

// Rule type discriminators understood by the default factory.
const (
	TypeFileMove  = "filemove"
	TypeCommand   = "command"
	TypeDataCheck = "datacheck"
	TypeBulkMail  = "bulkmail"
)

// Defaults returns a factory with all builtin rule types registered.
func Defaults() *rules.Factory {
	f := rules.NewFactory()

	// Registration on a fresh factory cannot collide.
	_ = f.Register(TypeFileMove, NewFileMoveRule)
	_ = f.Register(TypeCommand, NewCommandRule)
	_ = f.Register(TypeDataCheck, NewDataCheckRule)
	_ = f.Register(TypeBulkMail, NewBulkMailRule)

	return f
}
