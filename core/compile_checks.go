package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ TokenCodec = LegacyTokenCodec{}
	_ TokenCodec = (*SignedTokenCodec)(nil)
	_ AuditStore = NopAuditStore{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
