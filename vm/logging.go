package vm

import "github.com/tliron/commonlog"

// defaultLogger is looked up lazily rather than at package init so that an
// embedding application's chosen commonlog backend (registered via its own
// blank import, e.g. "github.com/tliron/commonlog/simple") is already
// wired up by the time anything logs.
func logger(l commonlog.Logger) commonlog.Logger {
	if l == nil {
		return commonlog.GetLogger("ravm.vm")
	}
	return l
}
