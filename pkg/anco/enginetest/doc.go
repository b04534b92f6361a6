// Package enginetest provides in-process engines that honour the
// request_conversion buffer contract, for deterministic tests of code built
// on anco.Client.
//
// # Engines
//
//	Echo          copies the input through its NUL, bounded by len(output)
//	Table         looks the input up in a map, echoes on a miss
//	Repeat        writes the input Times times, to exercise truncation
//	GarbageTail   valid result, then 0xFF up to len(output)
//	Overrun       valid result, then Extra bytes past len(output)
//	Blocking      waits for Release before echoing
//	Failing       returns Err
//
// Every engine embeds Recorder, which counts calls, tracks the highest
// number of calls in flight at once and records Close.
//
// # Usage
//
//	engine := enginetest.Sample()
//	client, _ := anco.New(engine, anco.Config{TrimAtNUL: true})
//	out, _ := client.Convert("にほんご") // "日本語"
package enginetest
