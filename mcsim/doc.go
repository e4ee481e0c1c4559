// Package mcsim implements an in-memory MC protocol device.
//
// A Device answers 3E request frames of one wire format the way a PLC CPU
// does: batch word and bit access, random and block reads, extended device
// reads, buffer memory reads, label reads, remote RUN/STOP/RESET and the CPU
// model query. Device memory starts zeroed and grows on demand.
//
// A Device can be used directly as an mcnet.Exchanger:
//
//	sim := mcsim.New(mcsim.WithFormat(mc.ASCII))
//	client, _ := mcnet.NewClient(sim, mcnet.WithFormat(mc.ASCII))
//
// or served over TCP with Serve, which is what the mcprobe sim command does.
package mcsim
