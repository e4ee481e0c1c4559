// Package transport provides the links that carry MC protocol frames: TCP
// (MC protocol over Ethernet) and serial (MC protocol over C24 modules).
//
// Both TCP and Serial implement mcnet.Exchanger and mcnet.ContextExchanger.
// An exchange writes one request frame and reads exactly one response frame,
// cutting it out of the byte stream with the length field of its header.
// Exchanges on one link are serialized; the link is opened on first use and
// reopened after an I/O failure, because a failed exchange leaves the byte
// stream at an unknown position.
package transport
