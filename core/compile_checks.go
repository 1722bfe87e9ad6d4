package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ DestinationCatalog = (*MemoryCatalog)(nil)
	_ DiagnosticSink     = (*LoggerDiagnosticSink)(nil)
	_ OptionsResolver    = GoOptionsResolver{}
	_ ConfigProvider     = (*CfgxConfigProvider)(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
