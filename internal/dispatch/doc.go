// Package dispatch decides who gets a grind reminder right now and sends it.
//
// A run is triggered from outside (a cron hitting the HTTP endpoint every
// 30 minutes, or the dispatch CLI). There is no scheduler inside the process:
//
//	CurrentSlot        → which 30-minute bucket is "now"
//	FilterEligible     → members whose grind time falls in that bucket
//	GroupByIntensity   → mild / medium / savage
//	Dispatcher.Dispatch → concurrent sends in fixed-size, strictly sequential batches
//	ApplyResults       → counter delta for the shared settings record
//
// Everything except Dispatch is a pure function of its inputs.
package dispatch
